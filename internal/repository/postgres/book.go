package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/internal/repository"
	"github.com/shelfnotes/bookreview/pkg/database"
	apperrors "github.com/shelfnotes/bookreview/pkg/errors"
)

const bookColumns = `id, title, author, genre, description, average_rating, review_count, created_at, updated_at`

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

// Create inserts a new book into the database.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) (err error) {
	query := `
		INSERT INTO books (id, title, author, genre, description, average_rating, review_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "books.create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Author,
		b.Genre,
		b.Description,
		b.AverageRating,
		b.ReviewCount,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by its ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (b *domain.Book, err error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "books.get_by_id", query)
	defer func() { end(err) }()

	var book domain.Book
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Genre,
		&book.Description,
		&book.AverageRating,
		&book.ReviewCount,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	return &book, nil
}

// List returns books matching the filter in insertion order, plus the
// number of matching books across all pages.
func (r *BookRepository) List(ctx context.Context, filter repository.BookFilter) (books []domain.Book, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Author != nil {
		conditions = append(conditions, fmt.Sprintf("author ILIKE $%d", argIndex))
		args = append(args, containsPattern(*filter.Author))
		argIndex++
	}

	if filter.Genre != nil {
		conditions = append(conditions, fmt.Sprintf("genre ILIKE $%d", argIndex))
		args = append(args, containsPattern(*filter.Genre))
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM books " + whereClause
	query := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		ORDER BY seq
		LIMIT $%d OFFSET $%d`,
		bookColumns, whereClause, argIndex, argIndex+1,
	)

	ctx, end := database.TraceQuery(ctx, "books.list", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	books, err = r.queryBooks(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	return books, total, nil
}

// Search returns books whose title or author contains q, case-insensitively.
func (r *BookRepository) Search(ctx context.Context, q string) (books []domain.Book, err error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE title ILIKE $1 OR author ILIKE $1
		ORDER BY seq`

	ctx, end := database.TraceQuery(ctx, "books.search", query)
	defer func() { end(err) }()

	books, err = r.queryBooks(ctx, query, containsPattern(q))
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	return books, nil
}

// UpdateRating writes the book's average rating and review count.
func (r *BookRepository) UpdateRating(ctx context.Context, b *domain.Book) (err error) {
	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE books
		SET average_rating = $1, review_count = $2, updated_at = $3
		WHERE id = $4`

	ctx, end := database.TraceQuery(ctx, "books.update_rating", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, b.AverageRating, b.ReviewCount, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update book rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", b.ID)
	}

	return nil
}

// UpdateAverageRating writes the book's average rating without touching its
// review count.
func (r *BookRepository) UpdateAverageRating(ctx context.Context, b *domain.Book) (err error) {
	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE books
		SET average_rating = $1, updated_at = $2
		WHERE id = $3`

	ctx, end := database.TraceQuery(ctx, "books.update_average_rating", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, b.AverageRating, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update book average rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", b.ID)
	}

	return nil
}

func (r *BookRepository) queryBooks(ctx context.Context, query string, args ...any) ([]domain.Book, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.Genre,
			&b.Description,
			&b.AverageRating,
			&b.ReviewCount,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}

	return books, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with LIKE
// metacharacters in s matched literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
