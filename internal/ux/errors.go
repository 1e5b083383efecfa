package ux

import (
	"fmt"
	"strings"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to uncoded errors. Coded errors already
// carry their own suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := goverrors.CodeOf(err); ok {
		return err
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "no such file or directory") {
		switch {
		case strings.Contains(errMsg, "governance.yaml"):
			return NewErrorWithSuggestion(err, "Create .govern/governance.yaml or pass --config")
		case strings.Contains(errMsg, "drift.json"):
			return NewErrorWithSuggestion(err, "Record an event with 'govern drift record' to create the drift log")
		case strings.Contains(errMsg, "waiver"):
			return NewErrorWithSuggestion(err, "Check the waivers section of .govern/governance.yaml")
		}
	}

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check file permissions and ensure you have access to the .govern directory")
	}

	if strings.Contains(errMsg, "context deadline exceeded") {
		return NewErrorWithSuggestion(err, "Raise the timeout in .govern/governance.yaml")
	}

	return err
}
