package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/internal/service"
	"github.com/shelfnotes/bookreview/pkg/httputil"
	"github.com/shelfnotes/bookreview/pkg/middleware"
	"github.com/shelfnotes/bookreview/pkg/pagination"
	"github.com/shelfnotes/bookreview/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for reviewing a book.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,notblank,max=5000"`
}

// UpdateReviewRequest is the JSON request body for updating a review.
// Absent fields are left unchanged.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=5000"`
}

// ReviewListResponse is the body of GET /api/books/{id}/reviews.
type ReviewListResponse struct {
	Reviews     []domain.Review `json:"reviews"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

// --- Handlers ---

// ListReviews handles GET /api/books/{id}/reviews?page&limit
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"), "Book")
	if !ok {
		return
	}

	page, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.ListReviews(r.Context(), bookID.String(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ReviewListResponse{
		Reviews:     result.Items,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
	})
}

// CreateReview handles POST /api/books/{id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"), "Book")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.service.CreateReview(r.Context(), &service.CreateReviewInput{
		BookID:  bookID.String(),
		UserID:  middleware.UserIDFromContext(r.Context()),
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, review)
}

// UpdateReview handles PUT /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"), "Review")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), id.String(), middleware.UserIDFromContext(r.Context()), domain.ReviewPatch{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, r, chi.URLParam(r, "id"), "Review")
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), id.String(), middleware.UserIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.MessageResponse{Message: "Review deleted successfully"})
}
