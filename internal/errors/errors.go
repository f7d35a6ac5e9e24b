package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig = "CONFIG"
	ErrKey    = "KEY"
	ErrAuth   = "AUTH"
	ErrAPI    = "API"
)

// Error kinds. Structured errors carry one of these as Kind so callers can
// match with errors.Is regardless of the message wording.
var (
	ErrKeyAlreadyExists      = errors.New("key already exists")
	ErrKeyGenerationFailed   = errors.New("key generation failed")
	ErrKeyNotFound           = errors.New("key not found")
	ErrAuthenticationDenied  = errors.New("authentication denied")
	ErrAuthenticationExpired = errors.New("authentication expired")
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrUploadFailed          = errors.New("upload failed")
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered for the terminal as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Kind       error
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrAPI code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrAPI,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// WithKind tags the error with one of the package's error kinds.
func (e *Error) WithKind(kind error) *Error {
	e.Kind = kind
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var ghErr *Error
	if errors.As(err, &ghErr) {
		return ghErr.Code == code
	}
	return false
}
