package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Quill error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"              // 404
	ErrInvalidTransition     ErrorCode = "INVALID_TRANSITION"     // 409
	ErrInsufficientData      ErrorCode = "INSUFFICIENT_DATA"      // 422
	ErrContentValidation     ErrorCode = "CONTENT_VALIDATION"     // 422
	ErrUpstreamFetch         ErrorCode = "UPSTREAM_FETCH"         // 502
	ErrPublishFailed         ErrorCode = "PUBLISH_FAILED"         // 502
	ErrGenerationUnavailable ErrorCode = "GENERATION_UNAVAILABLE" // 503
	ErrInternal              ErrorCode = "INTERNAL"               // 500
)

// FetchKind classifies an upstream fetch failure.
type FetchKind string

const (
	FetchUnavailable FetchKind = "unavailable"
	FetchPermission  FetchKind = "permission"
	FetchRateLimit   FetchKind = "rate_limit"
)

// QuillError represents a structured error with code, status, and details.
type QuillError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *QuillError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *QuillError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *QuillError {
	return &QuillError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a draft cannot be found.
func NewNotFound(identifier string) *QuillError {
	return &QuillError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("draft not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInvalidTransition creates a 409 error for a disallowed status change.
func NewInvalidTransition(id, from, to string) *QuillError {
	return &QuillError{
		Code:    ErrInvalidTransition,
		Status:  409,
		Message: fmt.Sprintf("cannot move draft %s from %s to %s", id, from, to),
		Details: map[string]any{"id": id, "from": from, "to": to},
	}
}

// NewInsufficientData creates a 422 error when there is nothing to work from.
func NewInsufficientData(msg string) *QuillError {
	return &QuillError{
		Code:    ErrInsufficientData,
		Status:  422,
		Message: msg,
	}
}

// NewContentValidation creates a 422 error for generated text that breaks a content rule.
func NewContentValidation(reason string, chars, attempts int) *QuillError {
	return &QuillError{
		Code:    ErrContentValidation,
		Status:  422,
		Message: fmt.Sprintf("generated content rejected: %s", reason),
		Details: map[string]any{"reason": reason, "chars": chars, "attempts": attempts},
	}
}

// NewGenerationUnavailable creates a 503 error when the model call fails.
func NewGenerationUnavailable(err error) *QuillError {
	msg := "generation unavailable"
	if err != nil {
		msg = fmt.Sprintf("generation unavailable: %v", err)
	}
	return &QuillError{
		Code:    ErrGenerationUnavailable,
		Status:  503,
		Message: msg,
		cause:   err,
	}
}

// NewUpstreamFetch creates a 502 error when a brief or post source cannot be read.
// upstreamStatus is the HTTP status returned by the source, or 0 for transport failures.
func NewUpstreamFetch(source string, kind FetchKind, upstreamStatus int, err error) *QuillError {
	msg := fmt.Sprintf("%s fetch failed (%s)", source, kind)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	details := map[string]any{"source": source, "kind": string(kind)}
	if upstreamStatus != 0 {
		details["upstream_status"] = upstreamStatus
	}
	return &QuillError{
		Code:    ErrUpstreamFetch,
		Status:  502,
		Message: msg,
		Details: details,
		cause:   err,
	}
}

// NewPublishFailed creates a 502 error when the publish call fails.
func NewPublishFailed(err error) *QuillError {
	msg := "publish failed"
	if err != nil {
		msg = fmt.Sprintf("publish failed: %v", err)
	}
	return &QuillError{
		Code:    ErrPublishFailed,
		Status:  502,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *QuillError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &QuillError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// As returns the QuillError in err's chain, if any.
func As(err error) (*QuillError, bool) {
	var qErr *QuillError
	if stderrors.As(err, &qErr) {
		return qErr, true
	}
	return nil, false
}

// Is checks if an error is a QuillError with the given code.
func Is(err error, code ErrorCode) bool {
	if qErr, ok := As(err); ok {
		return qErr.Code == code
	}
	return false
}

// KindOf returns the fetch kind of an UPSTREAM_FETCH error, or "" for anything else.
func KindOf(err error) FetchKind {
	qErr, ok := As(err)
	if !ok || qErr.Code != ErrUpstreamFetch {
		return ""
	}
	kind, _ := qErr.Details["kind"].(string)
	return FetchKind(kind)
}
