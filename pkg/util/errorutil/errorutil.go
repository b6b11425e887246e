package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to callers. Every failed core operation carries exactly one.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAlreadyClaimed    = "ALREADY_CLAIMED"
	CodeAlreadyApplied    = "ALREADY_APPLIED"
	CodeGigClosed         = "GIG_CLOSED"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeValidation        = "VALIDATION_FAILED"
	CodeDuplicateFeedback = "DUPLICATE_FEEDBACK"
	CodeStore             = "STORE_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Field      string
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports a missing or out-of-range input field.
func NewValidationError(field, message string) error {
	return &DomainError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Field:      field,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInvalidTransition(from, action string, details map[string]any) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot %s a gig in status %s", action, from),
		http.StatusConflict, details)
}

func NewAlreadyClaimed(details map[string]any) error {
	return NewDomainError(CodeAlreadyClaimed, "gig already claimed", http.StatusConflict, details)
}

func NewAlreadyApplied(details map[string]any) error {
	return NewDomainError(CodeAlreadyApplied, "already applied to this gig", http.StatusConflict, details)
}

func NewGigClosed(details map[string]any) error {
	return NewDomainError(CodeGigClosed, "gig is no longer open", http.StatusConflict, details)
}

func NewDuplicateFeedback(details map[string]any) error {
	return NewDomainError(CodeDuplicateFeedback, "feedback already submitted for this gig", http.StatusConflict, details)
}

func NewPermissionDenied(message string) error {
	return NewDomainError(CodePermissionDenied, message, http.StatusForbidden, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewStoreError wraps an infrastructure failure. It is the only retryable kind.
func NewStoreError(err error) error {
	return &DomainError{
		Code:       CodeStore,
		Message:    "store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// IsKind reports whether err carries the given code.
func IsKind(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Retryable reports whether the caller may safely retry the same call.
func Retryable(err error) bool {
	return IsKind(err, CodeStore)
}

// ToDomainError converts generic errors to DomainError. Unknown errors are
// treated as store failures.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeStore,
		Message:    "store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}
