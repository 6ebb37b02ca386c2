package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ValidationError, "invalid input", "fullName required")
	assert.Equal(t, ValidationError, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "fullName required", err.Detail)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
}

func TestNew_StatusByType(t *testing.T) {
	tests := []struct {
		errType ErrorType
		status  int
	}{
		{ValidationError, http.StatusBadRequest},
		{AuthError, http.StatusUnauthorized},
		{ForbiddenError, http.StatusForbidden},
		{NotFoundError, http.StatusNotFound},
		{PayloadTooLargeError, http.StatusRequestEntityTooLarge},
		{RateLimitError, http.StatusTooManyRequests},
		{DatabaseError, http.StatusInternalServerError},
		{ServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.status, New(tt.errType, "m", "").HTTPStatus)
		})
	}
}

func TestWrap(t *testing.T) {
	originalErr := fmt.Errorf("connection refused")
	wrappedErr := Wrap(originalErr, DatabaseError, "database operation failed")

	assert.Equal(t, DatabaseError, wrappedErr.Type)
	assert.Equal(t, "database operation failed", wrappedErr.Message)
	assert.Equal(t, originalErr.Error(), wrappedErr.Detail)
	assert.Equal(t, http.StatusInternalServerError, wrappedErr.HTTPStatus)
	assert.True(t, stderrors.Is(wrappedErr, originalErr))
	assert.Nil(t, Wrap(nil, DatabaseError, "unused"))
}

func TestNotFound(t *testing.T) {
	err := NotFound("Submission", 42)
	assert.Equal(t, NotFoundError, err.Type)
	assert.Equal(t, "Submission not found", err.Message)
	assert.Equal(t, "ID: 42", err.Detail)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
}

func TestRateLimitExceeded(t *testing.T) {
	err := RateLimitExceeded("Too many requests", 90)
	assert.Equal(t, RateLimitError, err.Type)
	assert.Equal(t, "retry after 90 seconds", err.Detail)
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus)
}

func TestPayloadTooLarge(t *testing.T) {
	err := PayloadTooLarge("Request body too large", 1024)
	assert.Equal(t, http.StatusRequestEntityTooLarge, err.HTTPStatus)
	assert.Equal(t, "limit: 1024 bytes", err.Detail)
}

func TestNewDatabaseError(t *testing.T) {
	originalErr := fmt.Errorf("connection failed")
	err := NewDatabaseError(originalErr, "Failed to fetch submissions")
	assert.Equal(t, DatabaseError, err.Type)
	assert.Equal(t, "Failed to fetch submissions", err.Message)
	assert.Equal(t, "Please try again later", err.Detail)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, originalErr, err.Raw)
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name: "with detail",
			err: &AppError{
				Type:    ValidationError,
				Message: "invalid input",
				Detail:  "email malformed",
			},
			expected: "VALIDATION_ERROR: invalid input (email malformed)",
		},
		{
			name: "without detail",
			err: &AppError{
				Type:    AuthError,
				Message: "Invalid credentials",
			},
			expected: "AUTHENTICATION_ERROR: Invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
