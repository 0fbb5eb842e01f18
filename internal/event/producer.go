package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfnotes/bookreview/internal/domain"
	pkgkafka "github.com/shelfnotes/bookreview/pkg/kafka"
	"github.com/shelfnotes/bookreview/pkg/logger"
)

// Aggregate types.
const (
	AggregateTypeBook   = "book"
	AggregateTypeReview = "review"
)

// Kafka topics for book review domain events.
var (
	TopicBookCreated       = pkgkafka.Topic(AggregateTypeBook, "created")
	TopicBookRatingUpdated = pkgkafka.Topic(AggregateTypeBook, "rating_updated")
	TopicReviewCreated     = pkgkafka.Topic(AggregateTypeReview, "created")
	TopicReviewUpdated     = pkgkafka.Topic(AggregateTypeReview, "updated")
	TopicReviewDeleted     = pkgkafka.Topic(AggregateTypeReview, "deleted")
)

// SourceBookReviewService identifies events originating from this service.
const SourceBookReviewService = "bookreview-service"

const defaultPublishTimeout = 2 * time.Second

// BookCreatedData is the payload for a book.created event.
type BookCreatedData struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
}

// BookRatingUpdatedData is the payload for a book.rating_updated event.
type BookRatingUpdatedData struct {
	ID            string  `json:"id"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// ReviewData is the payload for review.created and review.updated events.
type ReviewData struct {
	ID      string `json:"id"`
	BookID  string `json:"book"`
	UserID  string `json:"user"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID     string `json:"id"`
	BookID string `json:"book"`
	UserID string `json:"user"`
}

// Publisher is the transport the producer writes to. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes book review domain events.
type Producer struct {
	publisher Publisher
	timeout   time.Duration
	logger    *slog.Logger
}

// NewProducer creates an event producer over publisher.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		timeout:   defaultPublishTimeout,
		logger:    logger,
	}
}

// PublishBookCreated publishes a book.created event.
func (p *Producer) PublishBookCreated(ctx context.Context, b *domain.Book) error {
	return p.publish(ctx, TopicBookCreated, b.ID, AggregateTypeBook, BookCreatedData{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Description: b.Description,
	})
}

// PublishBookRatingUpdated publishes a book.rating_updated event.
func (p *Producer) PublishBookRatingUpdated(ctx context.Context, b *domain.Book) error {
	return p.publish(ctx, TopicBookRatingUpdated, b.ID, AggregateTypeBook, BookRatingUpdatedData{
		ID:            b.ID,
		AverageRating: b.AverageRating,
		ReviewCount:   b.ReviewCount,
	})
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, r.ID, AggregateTypeReview, reviewData(r))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, r.ID, AggregateTypeReview, reviewData(r))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewDeleted, r.ID, AggregateTypeReview, ReviewDeletedData{
		ID:     r.ID,
		BookID: r.BookID,
		UserID: r.UserID,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceBookReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	// The request may finish before the broker acknowledges; keep trace
	// values but not the request's cancellation.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.publisher.Publish(pubCtx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ID:      r.ID,
		BookID:  r.BookID,
		UserID:  r.UserID,
		Rating:  r.Rating,
		Comment: r.Comment,
	}
}

// Discard is an event sink used when no Kafka brokers are configured.
type Discard struct{}

func (Discard) PublishBookCreated(context.Context, *domain.Book) error { return nil }
func (Discard) PublishBookRatingUpdated(context.Context, *domain.Book) error { return nil }
func (Discard) PublishReviewCreated(context.Context, *domain.Review) error { return nil }
func (Discard) PublishReviewUpdated(context.Context, *domain.Review) error { return nil }
func (Discard) PublishReviewDeleted(context.Context, *domain.Review) error { return nil }
