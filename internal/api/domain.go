package api

import (
	"errors"
	"fmt"
)

// Error kinds. Services wrap them with fmt.Errorf("...: %w", api.ErrX) and
// the HTTP layer maps them to a status with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Kind labels sent to clients in the "kind" field of an error body.
const (
	KindValidation      = "validation"
	KindUnauthenticated = "unauthenticated"
	KindForbidden       = "forbidden"
	KindNotFound        = "not_found"
	KindConflict        = "conflict"
	KindInternal        = "internal"
)

// Response represents a generic API response for success or error messages.
type Response struct {
	Success   bool   `json:"success" example:"false"`
	Message   string `json:"message,omitempty" example:"Operation successful"`
	Error     string `json:"error,omitempty" example:"skill not found"`
	Kind      string `json:"kind,omitempty" example:"not_found"`
	RequestID string `json:"request_id,omitempty"`
}

// MessageResponse is returned by counter endpoints.
type MessageResponse struct {
	Message       string `json:"message" example:"Download count incremented"`
	DownloadCount *int64 `json:"download_count,omitempty"`
	CloneCount    *int64 `json:"clone_count,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// NewError returns an error whose message is msg and which matches kind
// under errors.Is. Use it when the kind name should not appear in the text
// sent to clients.
func NewError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Errorf is NewError with formatting.
func Errorf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}
