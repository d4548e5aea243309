package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the error body returned by the report API.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// WithDetails returns a copy of e carrying details. Sentinels stay untouched.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

var (
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrReportNotFound   = New(http.StatusNotFound, "REPORT_NOT_FOUND", "No report has been generated in the report directory")
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	ErrRateLimited      = New(http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded")
	ErrInternalServer   = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// NotFoundError names the missing view or file.
func NotFoundError(resource string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", resource+" not found").WithDetails(resource)
}

// statusByType maps pipeline error types onto HTTP statuses. A report that
// cannot be parsed is the client's data problem, not a server fault.
var statusByType = map[ErrorType]int{
	ErrTypeNotFound:   http.StatusNotFound,
	ErrTypeValidation: http.StatusBadRequest,
	ErrTypeLoad:       http.StatusUnprocessableEntity,
	ErrTypeSchema:     http.StatusUnprocessableEntity,
}

var codeByType = map[ErrorType]string{
	ErrTypeNotFound:   "NOT_FOUND",
	ErrTypeValidation: "VALIDATION_FAILED",
}

// FromAppError maps an AppError onto the HTTP error surface.
func FromAppError(err *AppError) *APIError {
	status, ok := statusByType[err.Type]
	if !ok {
		status = http.StatusInternalServerError
	}
	code, ok := codeByType[err.Type]
	if !ok {
		code = string(err.Type)
	}
	apiErr := New(status, code, err.Message)
	if len(err.Context) > 0 {
		apiErr.Details = err.Context
	}
	return apiErr
}

// FromError picks the APIError for any error: APIErrors pass through,
// AppErrors are mapped by type and anything else is a 500.
func FromError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return FromAppError(appErr)
	}
	return ErrInternalServer
}

// ErrorResponse wraps an APIError as {"success":false,"error":{...}}.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError writes err as a JSON ErrorResponse.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(&ErrorResponse{Error: err})
}
