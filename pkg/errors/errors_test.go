package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized, ErrServiceUnavail}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotErrorIs(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: CodeInternal, Message: "something broke", Err: fmt.Errorf("db connection lost")}
	assert.Equal(t, "INTERNAL_ERROR: something broke: db connection lost", withCause.Error())

	bare := &AppError{Code: CodeNotFound, Message: "book not found"}
	assert.Equal(t, "NOT_FOUND: book not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
		message  string
	}{
		{"not found", NotFound("book", "abc-123"), CodeNotFound, http.StatusNotFound, ErrNotFound, "book with id abc-123 not found"},
		{"not found message", NotFoundMessage("Review not found or unauthorized"), CodeNotFound, http.StatusNotFound, ErrNotFound, "Review not found or unauthorized"},
		{"already exists", AlreadyExists("review", "book", "b-1"), CodeAlreadyExists, http.StatusConflict, ErrAlreadyExists, `review with book "b-1" already exists`},
		{"invalid input", InvalidInput("You have already reviewed this book"), CodeInvalidInput, http.StatusBadRequest, ErrInvalidInput, "You have already reviewed this book"},
		{"invalid parameter", InvalidParameter("page must be a positive integer"), CodeInvalidParameter, http.StatusBadRequest, ErrInvalidInput, "page must be a positive integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestClassify_AppErrorInChain(t *testing.T) {
	err := fmt.Errorf("create review: %w", InvalidInput("dup"))

	got := Classify(err)
	assert.Equal(t, CodeInvalidInput, got.Code)
	assert.Equal(t, "dup", got.Message)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestClassify_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ErrNotFound, http.StatusNotFound, CodeNotFound},
		{ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists},
		{ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput},
		{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{ErrServiceUnavail, http.StatusServiceUnavailable, CodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			wrapped := fmt.Errorf("get book: %w", tt.err)
			got := Classify(wrapped)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
			assert.True(t, errors.Is(got, tt.err))
		})
	}
}

func TestClassify_InvalidInputKeepsText(t *testing.T) {
	got := Classify(fmt.Errorf("rating out of range: %w", ErrInvalidInput))
	assert.Equal(t, "rating out of range: invalid input", got.Message)
}

func TestClassify_UnknownErrorIsOpaque(t *testing.T) {
	got := Classify(fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, CodeInternal, got.Code)
	assert.NotContains(t, got.Message, "10.0.0.5")
	assert.Contains(t, got.Error(), "connection refused")
}
