// Package problemdetails implements RFC 7807 error responses.
package problemdetails

import "fmt"

const (
	TypeInvalidRequest    = "invalid-request"
	TypeValidationError   = "validation-error"
	TypeConflict          = "conflict"
	TypeNotFound          = "not-found"
	TypeRateLimitExceeded = "rate-limit-exceeded"
	TypeInternalError     = "internal-error"
)

// FieldError points a validation failure at a single payload field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProblemDetail is an RFC 7807 response body.
type ProblemDetail struct {
	Type   string       `json:"type"`
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

// New creates a ProblemDetail with the given status and type slug.
func New(status int, problemType, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://problems.example.com/%s", problemType),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// NewValidation creates a 400 ProblemDetail carrying field-level errors.
func NewValidation(errors []FieldError) *ProblemDetail {
	p := New(400, TypeValidationError, "Validation Failed", "Request validation failed")
	p.Errors = errors
	return p
}
