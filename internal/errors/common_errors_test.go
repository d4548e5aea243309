package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeSchema,
				Message: "required column missing",
			},
			wantMessage: "[SCHEMA] required column missing",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeLoad,
				Message: "failed to open workbook",
				Cause:   fmt.Errorf("no such file or directory"),
			},
			wantMessage: "[LOAD] failed to open workbook: no such file or directory",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeValidation,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewWriteError("failed to save workbook", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, NewAppValidationError("bad").Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeRender, Message: "render failed"}
	err.WithContext("view", "daily_sales").WithContext("rows", 3)

	assert.Equal(t, "daily_sales", err.Context["view"])
	assert.Equal(t, 3, err.Context["rows"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"load", NewLoadError("x", nil), ErrTypeLoad},
		{"schema", NewSchemaError("state"), ErrTypeSchema},
		{"write", NewWriteError("x", nil), ErrTypeWrite},
		{"render", NewRenderError("top_states", nil), ErrTypeRender},
		{"storage", NewStorageError("x", nil), ErrTypeStorage},
		{"publish", NewPublishError("s3", nil), ErrTypePublish},
		{"not found", NewNotFoundError("view"), ErrTypeNotFound},
		{"config", NewConfigError("x", nil), ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}

	schema := NewSchemaError("order date")
	assert.Equal(t, `[SCHEMA] required column "order date" not found`, schema.Error())
	assert.Equal(t, "order date", schema.Context["column"])
}

func TestIsType(t *testing.T) {
	inner := NewSchemaError("quantity")
	wrapped := fmt.Errorf("clean: %w", NewRenderError("rating_distribution", inner))

	assert.True(t, IsType(wrapped, ErrTypeRender))
	assert.True(t, IsType(wrapped, ErrTypeSchema))
	assert.False(t, IsType(wrapped, ErrTypeWrite))
	assert.False(t, IsType(errors.New("plain"), ErrTypeLoad))
	assert.False(t, IsType(nil, ErrTypeLoad))

	assert.Equal(t, ErrTypeRender, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestFromAppError(t *testing.T) {
	tests := []struct {
		err        *AppError
		wantStatus int
	}{
		{NewNotFoundError("view"), http.StatusNotFound},
		{NewAppValidationError("bad"), http.StatusBadRequest},
		{NewSchemaError("state"), http.StatusUnprocessableEntity},
		{NewWriteError("x", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, FromAppError(tt.err).StatusCode)
		})
	}
}

func TestFromError(t *testing.T) {
	assert.Same(t, ErrRateLimited, FromError(fmt.Errorf("wrapped: %w", ErrRateLimited)))

	apiErr := FromError(fmt.Errorf("read: %w", NewSchemaError("state")))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "SCHEMA", apiErr.ErrorCode)
	assert.Equal(t, map[string]interface{}{"column": "state"}, apiErr.Details)

	assert.Same(t, ErrInternalServer, FromError(errors.New("disk on fire")))
}

func TestWithDetails_CopiesSentinel(t *testing.T) {
	detailed := ErrNotFound.WithDetails("daily_sales")
	assert.Equal(t, "daily_sales", detailed.Details)
	assert.Nil(t, ErrNotFound.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NotFoundError("view"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error_code":"NOT_FOUND"`)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
