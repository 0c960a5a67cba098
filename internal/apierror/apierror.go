// Package apierror provides the domain error taxonomy and the standardized
// error response structures for the API. All errors returned to clients go
// through this package to ensure consistency and to prevent leaking internal
// details (stack traces, DB errors, etc.).
package apierror

import "errors"

// Kind classifies a domain error. Handlers map kinds to HTTP status codes;
// services never import net/http.
type Kind int

const (
	// KindInternal is anything unexpected — logged with full context,
	// reported to clients as a generic 500.
	KindInternal Kind = iota
	// KindValidation is missing or malformed input. Always recoverable by
	// the caller; never partially applied.
	KindValidation
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindBusinessRule is a precondition failure with domain meaning:
	// insufficient stock, insufficient loyalty points, overpayment beyond
	// tolerance, mutation of a completed transaction.
	KindBusinessRule
	// KindConflict is a uniqueness violation surfaced from persistence.
	KindConflict
)

// Error is a domain error with a stable, greppable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Msg: msg} }
func BusinessRule(msg string) *Error { return &Error{Kind: KindBusinessRule, Msg: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Msg: msg} }
func Internal(msg string) *Error     { return &Error{Kind: KindInternal, Msg: msg} }

// KindOf extracts the Kind from err, or KindInternal when err is not a
// domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors from request binding.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}
