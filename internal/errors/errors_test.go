package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("missing required fields: metrics")

	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")
	assert.Contains(t, err.Error(), "metrics")
	assert.False(t, err.Timestamp.IsZero())
}

func TestNewMalformedRecordError(t *testing.T) {
	cause := errors.New("json: cannot unmarshal array into Go struct field")
	err := NewMalformedRecordError("metrics.hover.hoverCounts", cause)

	assert.Equal(t, CategoryMalformed, err.Category)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Contains(t, err.Error(), "MALFORMED_RECORD_ERROR")
	assert.Contains(t, err.Error(), "hoverCounts")
}

func TestNewRateLimitError(t *testing.T) {
	err := NewRateLimitError("60")

	assert.Equal(t, CategoryRateLimit, err.Category)
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus)
	assert.Contains(t, err.Error(), "RATE_LIMIT_EXCEEDED")
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		status   int
	}{
		{
			name:     "passes through an app error",
			err:      NewValidationError("bad record"),
			category: CategoryValidation,
			status:   http.StatusBadRequest,
		},
		{
			name:     "classifies deadline exceeded as timeout",
			err:      fmt.Errorf("request failed: %w", context.DeadlineExceeded),
			category: CategoryTimeout,
			status:   http.StatusGatewayTimeout,
		},
		{
			name:     "classifies cancellation as timeout",
			err:      context.Canceled,
			category: CategoryTimeout,
			status:   http.StatusGatewayTimeout,
		},
		{
			name:     "wraps unknown errors as internal",
			err:      errors.New("boom"),
			category: CategoryInternal,
			status:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)

			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
		})
	}
}

func TestToAppError_Nil(t *testing.T) {
	assert.Nil(t, ToAppError(nil))
}

func TestWrapError(t *testing.T) {
	base := errors.New("disk full")

	wrapped := WrapError(base, "flushing history")

	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "flushing history")
	assert.ErrorIs(t, wrapped, base)
}
