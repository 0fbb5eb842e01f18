package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/internal/repository"
	apperrors "github.com/shelfnotes/bookreview/pkg/errors"
	"github.com/shelfnotes/bookreview/pkg/pagination"
)

const (
	msgBookNotFound     = "Book not found"
	msgReviewNotFound   = "Review not found or unauthorized"
	msgAlreadyReviewed  = "You have already reviewed this book"
	msgInvalidRating    = "rating must be between 1 and 5"
	msgUserIDIsRequired = "user id is required"
)

// ReviewService creates, updates and deletes reviews and keeps each book's
// averageRating and reviewCount in step with its reviews.
//
// The review write and the book write are separate statements; a failure
// between them leaves the book's rating stale until the next mutation.
// Concurrent mutations on one book are not serialized, so the last
// recompute to write wins.
type ReviewService struct {
	books   repository.BookRepository
	reviews repository.ReviewRepository
	events  EventPublisher
	logger  *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(books repository.BookRepository, reviews repository.ReviewRepository, events EventPublisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		books:   books,
		reviews: reviews,
		events:  events,
		logger:  logger,
	}
}

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	BookID  string
	UserID  string
	Rating  int
	Comment string
}

// CreateReview adds userID's review of a book and refreshes the book's
// average rating and review count.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput(msgUserIDIsRequired)
	}
	if !domain.IsValidRating(input.Rating) {
		return nil, apperrors.InvalidInput(msgInvalidRating)
	}

	if _, err := s.books.GetByID(ctx, input.BookID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgBookNotFound)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	_, err := s.reviews.GetByBookAndUser(ctx, input.BookID, input.UserID)
	switch {
	case err == nil:
		return nil, apperrors.InvalidInput(msgAlreadyReviewed)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("check existing review: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		BookID:    input.BookID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		// Lost the race against a concurrent create by the same user.
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.InvalidInput(msgAlreadyReviewed)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
	)

	book, err := s.recomputeRating(ctx, review.BookID, true, pathCreate)
	if err != nil {
		return nil, err
	}

	s.publishReview(ctx, s.events.PublishReviewCreated, "review.created", review)
	s.publishRating(ctx, book)

	return review, nil
}

// UpdateReview applies patch to the caller's own review and refreshes the
// book's average rating. The review count is left as it was.
func (s *ReviewService) UpdateReview(ctx context.Context, id, userID string, patch domain.ReviewPatch) (*domain.Review, error) {
	if patch.Rating != nil && !domain.IsValidRating(*patch.Rating) {
		return nil, apperrors.InvalidInput(msgInvalidRating)
	}

	review, err := s.reviews.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgReviewNotFound)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	patch.Apply(review)

	if err := s.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgReviewNotFound)
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.Int("rating", review.Rating),
	)

	book, err := s.recomputeRating(ctx, review.BookID, false, pathUpdate)
	if err != nil {
		return nil, err
	}

	s.publishReview(ctx, s.events.PublishReviewUpdated, "review.updated", review)
	s.publishRating(ctx, book)

	return review, nil
}

// DeleteReview removes the caller's own review and refreshes the book's
// average rating and review count. With no reviews left both become zero.
func (s *ReviewService) DeleteReview(ctx context.Context, id, userID string) error {
	review, err := s.reviews.DeleteByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundMessage(msgReviewNotFound)
		}
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
	)

	book, err := s.recomputeRating(ctx, review.BookID, true, pathDelete)
	if err != nil {
		return err
	}

	s.publishReview(ctx, s.events.PublishReviewDeleted, "review.deleted", review)
	s.publishRating(ctx, book)

	return nil
}

// ListReviews returns one page of a book's reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, bookID string, page pagination.Params) (*ListResult[domain.Review], error) {
	if page.Page < 1 || page.Limit < 1 {
		page = pagination.DefaultParams()
	}

	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgBookNotFound)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	reviews, total, err := s.reviews.ListPageByBookID(ctx, bookID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return &ListResult[domain.Review]{
		Items:       reviews,
		TotalPages:  pagination.TotalPages(total, page.Limit),
		CurrentPage: page.Page,
	}, nil
}

// recomputeRating re-reads every review of the book and writes the mean
// back. refreshCount also rewrites reviewCount; without it the stored count
// is never written.
func (s *ReviewService) recomputeRating(ctx context.Context, bookID string, refreshCount bool, path string) (*domain.Book, error) {
	ratingRecomputations.WithLabelValues(path).Inc()

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("recompute rating: get book: %w", err)
	}

	reviews, err := s.reviews.ListByBookID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("recompute rating: list reviews: %w", err)
	}

	book.ApplyRating(domain.Summarize(reviews), refreshCount)

	write := s.books.UpdateAverageRating
	if refreshCount {
		write = s.books.UpdateRating
	}
	if err := write(ctx, book); err != nil {
		return nil, fmt.Errorf("recompute rating: update book: %w", err)
	}

	s.logger.DebugContext(ctx, "book rating recomputed",
		slog.String("book_id", book.ID),
		slog.Float64("average_rating", book.AverageRating),
		slog.Int("review_count", book.ReviewCount),
		slog.String("path", path),
	)

	return book, nil
}

func (s *ReviewService) publishReview(ctx context.Context, publish func(context.Context, *domain.Review) error, name string, r *domain.Review) {
	if err := publish(ctx, r); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish "+name+" event",
			slog.String("review_id", r.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ReviewService) publishRating(ctx context.Context, b *domain.Book) {
	if err := s.events.PublishBookRatingUpdated(ctx, b); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish book.rating_updated event",
			slog.String("book_id", b.ID),
			slog.String("error", err.Error()),
		)
	}
}
