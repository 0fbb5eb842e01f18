// Package service holds the book catalog and the review aggregation logic.
package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shelfnotes/bookreview/internal/domain"
)

// EventPublisher emits domain events. Publishing is best effort: callers log
// failures and carry on.
type EventPublisher interface {
	PublishBookCreated(ctx context.Context, b *domain.Book) error
	PublishBookRatingUpdated(ctx context.Context, b *domain.Book) error
	PublishReviewCreated(ctx context.Context, r *domain.Review) error
	PublishReviewUpdated(ctx context.Context, r *domain.Review) error
	PublishReviewDeleted(ctx context.Context, r *domain.Review) error
}

// Recompute paths, used as the metric label.
const (
	pathCreate = "create"
	pathUpdate = "update"
	pathDelete = "delete"
)

var ratingRecomputations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bookreview_rating_recomputations_total",
		Help: "Number of book rating recomputations by review mutation path.",
	},
	[]string{"path"},
)

// ListResult is one page of a paginated listing.
type ListResult[T any] struct {
	Items       []T
	TotalPages  int
	CurrentPage int
}
