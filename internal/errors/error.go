package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryBundle Category = "bundle"
	CategoryServer Category = "server"
	CategoryClient Category = "client"
	CategoryDeploy Category = "deploy"
)

// ReplayError is a structured error with a code, category, and suggestion.
type ReplayError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (config, bundle, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReplayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReplayError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *ReplayError) WithDetail(d string) *ReplayError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ReplayError) WithSuggestion(s string) *ReplayError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *ReplayError) Wrap(err error) *ReplayError {
	e.Wrapped = err
	return e
}

// New creates a ReplayError from a registered error code.
func New(code string) *ReplayError {
	template, ok := registry[code]
	if !ok {
		return &ReplayError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ReplayError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new ReplayError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ReplayError {
	return &ReplayError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ReplayError.
func FromError(err error, code string) *ReplayError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*ReplayError); ok {
		return re
	}
	return New(code).Wrap(err)
}
