package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/shelfnotes/bookreview/pkg/errors"
	"github.com/shelfnotes/bookreview/pkg/logger"
	"github.com/shelfnotes/bookreview/pkg/validator"
)

// ErrorEnvelope is the JSON body of every error response.
type ErrorEnvelope struct {
	Error *ErrorResponse `json:"error"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// MessageResponse is a bare acknowledgement body, e.g. {"message":"Review deleted successfully"}.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError converts err into the error envelope using apperrors.Classify.
// 5xx errors are logged with the request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	appErr := apperrors.Classify(err)
	if appErr.Status >= http.StatusInternalServerError {
		logInternal(r, l, err)
	}

	WriteJSON(w, appErr.Status, ErrorEnvelope{
		Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
	})
}

func logInternal(r *http.Request, l *slog.Logger, err error) {
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
}

// WriteValidationError writes a 400 for a request body that failed to decode
// or validate. Field-level messages are included for validator failures.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeValidation(w, valErr, requestID)
		return
	}

	WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{
		Error: &ErrorResponse{Code: apperrors.CodeInvalidInput, Message: err.Error(), RequestID: requestID},
	})
}

func writeValidation(w http.ResponseWriter, valErr *validator.ValidationError, requestID string) {
	WriteJSON(w, http.StatusBadRequest, ErrorEnvelope{
		Error: &ErrorResponse{
			Code:      "VALIDATION_ERROR",
			Message:   "request validation failed",
			Fields:    valErr.Fields(),
			RequestID: requestID,
		},
	})
}

// ParseID parses a path identifier. A malformed id cannot name an existing
// resource, so it is answered with 404 for the given resource and false is
// returned, signaling the caller to return early.
func ParseID(w http.ResponseWriter, r *http.Request, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusNotFound, ErrorEnvelope{
			Error: &ErrorResponse{
				Code:      apperrors.CodeNotFound,
				Message:   resource + " not found",
				RequestID: logger.CorrelationIDFromContext(r.Context()),
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
