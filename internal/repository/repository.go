package repository

import (
	"context"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/pkg/pagination"
)

// BookFilter defines filter criteria for listing books. Author and Genre are
// case-insensitive substring matches.
type BookFilter struct {
	Author *string
	Genre  *string
	pagination.Params
}

// BookRepository defines the interface for book persistence operations.
type BookRepository interface {
	// Create inserts a new book into the store.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// List returns one page of books in insertion order along with the
	// total number of books matching the filter.
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)

	// Search returns books whose title or author contains q.
	Search(ctx context.Context, q string) ([]domain.Book, error)

	// UpdateRating persists the book's average rating and review count.
	UpdateRating(ctx context.Context, book *domain.Book) error

	// UpdateAverageRating persists only the average rating; review_count is
	// left as stored.
	UpdateAverageRating(ctx context.Context, book *domain.Book) error
}

// ReviewRepository defines the interface for review persistence operations.
// Lookups scoped by user fold the ownership check into the query, so a
// review owned by someone else is reported as not found.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByBookAndUser(ctx context.Context, bookID, userID string) (*domain.Review, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*domain.Review, error)

	// ListByBookID returns every review of a book.
	ListByBookID(ctx context.Context, bookID string) ([]domain.Review, error)

	// ListPageByBookID returns one page of a book's reviews, newest first,
	// with the total count.
	ListPageByBookID(ctx context.Context, bookID string, page pagination.Params) ([]domain.Review, int, error)

	Update(ctx context.Context, review *domain.Review) error

	// DeleteByIDAndUser removes the review and returns the deleted row.
	DeleteByIDAndUser(ctx context.Context, id, userID string) (*domain.Review, error)
}
