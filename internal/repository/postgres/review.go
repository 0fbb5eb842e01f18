package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/pkg/database"
	apperrors "github.com/shelfnotes/bookreview/pkg/errors"
	"github.com/shelfnotes/bookreview/pkg/pagination"
)

const (
	reviewColumns = `id, book_id, user_id, rating, comment, created_at, updated_at`

	// reviewsBookUserKey is the unique index enforcing one review per user and book.
	reviewsBookUserKey = "reviews_book_id_user_id_key"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review. A second review by the same user for the
// same book fails with apperrors.ErrAlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "reviews.create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.BookID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, reviewsBookUserKey) {
			return apperrors.AlreadyExists("review", "book", review.BookID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByBookAndUser returns the user's review of a book.
func (r *ReviewRepository) GetByBookAndUser(ctx context.Context, bookID, userID string) (rv *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE book_id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "reviews.get_by_book_and_user", query)
	defer func() { end(err) }()

	return r.scanReview(ctx, query, bookID, userID)
}

// GetByIDAndUser returns the review only if userID owns it.
func (r *ReviewRepository) GetByIDAndUser(ctx context.Context, id, userID string) (rv *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "reviews.get_by_id_and_user", query)
	defer func() { end(err) }()

	return r.scanReview(ctx, query, id, userID)
}

// ListByBookID returns all reviews of a book.
func (r *ReviewRepository) ListByBookID(ctx context.Context, bookID string) (reviews []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE book_id = $1`

	ctx, end := database.TraceQuery(ctx, "reviews.list_by_book", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err = scanReviewRow(rows, &rv); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// ListPageByBookID returns one page of a book's reviews, newest first.
func (r *ReviewRepository) ListPageByBookID(ctx context.Context, bookID string, page pagination.Params) (reviews []domain.Review, total int, err error) {
	query := `
		SELECT ` + reviewColumns + `,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE book_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "reviews.list_page_by_book", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, bookID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err = rows.Scan(
			&rv.ID,
			&rv.BookID,
			&rv.UserID,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if len(reviews) == 0 && page.Offset > 0 {
		// The window count is empty past the last page.
		countQuery := `SELECT COUNT(*) FROM reviews WHERE book_id = $1`
		if err = r.pool.QueryRow(ctx, countQuery, bookID).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count reviews: %w", err)
		}
	}

	return reviews, total, nil
}

// Update writes the review's rating and comment. The owner check is part of
// the WHERE clause.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) (err error) {
	review.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5`

	ctx, end := database.TraceQuery(ctx, "reviews.update", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		review.Rating,
		review.Comment,
		review.UpdatedAt,
		review.ID,
		review.UserID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteByIDAndUser deletes the review owned by userID in one statement and
// returns the deleted row.
func (r *ReviewRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) (rv *domain.Review, err error) {
	query := `DELETE FROM reviews WHERE id = $1 AND user_id = $2 RETURNING ` + reviewColumns

	ctx, end := database.TraceQuery(ctx, "reviews.delete", query)
	defer func() { end(err) }()

	return r.scanReview(ctx, query, id, userID)
}

func (r *ReviewRepository) scanReview(ctx context.Context, query string, args ...any) (*domain.Review, error) {
	var rv domain.Review
	if err := scanReviewRow(r.pool.QueryRow(ctx, query, args...), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func scanReviewRow(row pgx.Row, rv *domain.Review) error {
	if err := row.Scan(
		&rv.ID,
		&rv.BookID,
		&rv.UserID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	); err != nil {
		return fmt.Errorf("scan review: %w", err)
	}
	return nil
}
