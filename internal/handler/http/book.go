package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/internal/service"
	"github.com/shelfnotes/bookreview/pkg/httputil"
	"github.com/shelfnotes/bookreview/pkg/pagination"
	"github.com/shelfnotes/bookreview/pkg/validator"
)

const maxBodyBytes = 1 << 20

// BookHandler handles HTTP requests for book endpoints.
type BookHandler struct {
	service *service.BookService
	logger  *slog.Logger
}

// NewBookHandler creates a new book HTTP handler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateBookRequest is the JSON request body for creating a book.
type CreateBookRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=500"`
	Author      string `json:"author" validate:"required,notblank,max=255"`
	Genre       string `json:"genre" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=10000"`
}

// BookListResponse is the body of GET /api/books.
type BookListResponse struct {
	Books       []domain.Book `json:"books"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

// ListBooks handles GET /api/books?page&limit&author&genre
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	input := service.ListBooksInput{Page: page}
	q := r.URL.Query()
	if v := q.Get("author"); v != "" {
		input.Author = &v
	}
	if v := q.Get("genre"); v != "" {
		input.Genre = &v
	}

	result, err := h.service.ListBooks(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, BookListResponse{
		Books:       result.Items,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
	})
}

// GetBook handles GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"), "Book")
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateBookRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), &service.CreateBookInput{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, book)
}

// SearchBooks handles GET /api/books/search?q
func (h *BookHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.SearchBooks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, books)
}
