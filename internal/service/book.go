package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/internal/repository"
	apperrors "github.com/shelfnotes/bookreview/pkg/errors"
	"github.com/shelfnotes/bookreview/pkg/pagination"
)

// BookService implements the book catalog.
type BookService struct {
	repo   repository.BookRepository
	events EventPublisher
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(repo repository.BookRepository, events EventPublisher, logger *slog.Logger) *BookService {
	return &BookService{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// CreateBookInput holds the parameters for creating a book.
type CreateBookInput struct {
	Title       string
	Author      string
	Genre       string
	Description string
}

// ListBooksInput holds the optional filters and the requested page.
type ListBooksInput struct {
	Author *string
	Genre  *string
	Page   pagination.Params
}

// ListBooks returns one page of books in insertion order.
func (s *BookService) ListBooks(ctx context.Context, input ListBooksInput) (*ListResult[domain.Book], error) {
	page := input.Page
	if page.Page < 1 || page.Limit < 1 {
		page = pagination.DefaultParams()
	}

	books, total, err := s.repo.List(ctx, repository.BookFilter{
		Author: input.Author,
		Genre:  input.Genre,
		Params: page,
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return &ListResult[domain.Book]{
		Items:       books,
		TotalPages:  pagination.TotalPages(total, page.Limit),
		CurrentPage: page.Page,
	}, nil
}

// GetBook returns the book with the given id.
func (s *BookService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage(msgBookNotFound)
		}
		return nil, fmt.Errorf("get book by id: %w", err)
	}
	return book, nil
}

// CreateBook creates a book with zero rating and no reviews.
func (s *BookService) CreateBook(ctx context.Context, input *CreateBookInput) (*domain.Book, error) {
	now := time.Now().UTC()
	book := &domain.Book{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Author:      input.Author,
		Genre:       input.Genre,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	book.Normalize()

	switch {
	case book.Title == "":
		return nil, apperrors.InvalidInput("title is required")
	case book.Author == "":
		return nil, apperrors.InvalidInput("author is required")
	case book.Genre == "":
		return nil, apperrors.InvalidInput("genre is required")
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	if err := s.events.PublishBookCreated(ctx, book); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish book.created event",
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "book created",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
	)

	return book, nil
}

// SearchBooks returns books whose title or author contains q.
func (s *BookService) SearchBooks(ctx context.Context, q string) ([]domain.Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperrors.InvalidInput("search query is required")
	}

	books, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}
