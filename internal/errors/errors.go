package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Claim errors (CLAIM-001 to CLAIM-099)
	ErrCodeCheckError        ErrorCode = "CLAIM-001"
	ErrCodeBlockingFailure   ErrorCode = "CLAIM-002"
	ErrCodeClaimRegistration ErrorCode = "CLAIM-003"

	// Drift errors (DRIFT-001 to DRIFT-099)
	ErrCodeDriftNotFound          ErrorCode = "DRIFT-001"
	ErrCodeDriftInvalidTransition ErrorCode = "DRIFT-002"
	ErrCodeDriftInvalidSeverity   ErrorCode = "DRIFT-003"
	ErrCodeDriftInvalidFixMode    ErrorCode = "DRIFT-004"
	ErrCodeDriftLockTimeout       ErrorCode = "DRIFT-005"
	ErrCodeDriftDuplicateEvent    ErrorCode = "DRIFT-006"

	// Waiver errors (WAIVER-001 to WAIVER-099)
	ErrCodeWaiverSchemaViolation ErrorCode = "WAIVER-001"
	ErrCodeWaiverParseFailure    ErrorCode = "WAIVER-002"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// GovernError represents an enhanced error with code, suggestions, and documentation
type GovernError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *GovernError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *GovernError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GovernError carrying the same code.
// This lets callers match on a code with errors.Is(err, errors.New(code, "")).
func (e *GovernError) Is(target error) bool {
	t, ok := target.(*GovernError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new GovernError
func New(code ErrorCode, message string) *GovernError {
	return &GovernError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new GovernError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *GovernError {
	return &GovernError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *GovernError) WithSuggestion(suggestion string) *GovernError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *GovernError) WithSuggestions(suggestions ...string) *GovernError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *GovernError) WithDocs(url string) *GovernError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first GovernError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var gerr *GovernError
	if stderrors.As(err, &gerr) {
		return gerr.Code, true
	}
	return "", false
}

// HasCode reports whether err's chain contains a GovernError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var gerr *GovernError
	for err != nil {
		if !stderrors.As(err, &gerr) {
			return false
		}
		if gerr.Code == code {
			return true
		}
		err = gerr.Cause
	}
	return false
}

// Common error constructors for frequently used errors

// NewCheckError wraps a failure of a claim's own verification logic
func NewCheckError(claimID string, cause error) *GovernError {
	return Wrap(ErrCodeCheckError, fmt.Sprintf("check for claim %s could not complete", claimID), cause)
}

// NewBlockingFailureError reports blocking claims that failed without an active waiver
func NewBlockingFailureError(claimIDs []string) *GovernError {
	return New(ErrCodeBlockingFailure, fmt.Sprintf("%d blocking claim(s) failed: %s", len(claimIDs), strings.Join(claimIDs, ", "))).
		WithSuggestion("Fix the reported issues and run 'govern check' again").
		WithSuggestion("Add a waiver under .govern/waivers if the failure is accepted temporarily")
}

// NewClaimRegistrationError creates an error for an invalid claim registration
func NewClaimRegistrationError(claimID string, reason string) *GovernError {
	return New(ErrCodeClaimRegistration, fmt.Sprintf("cannot register claim %q: %s", claimID, reason))
}

// NewDriftNotFoundError creates a drift event not found error
func NewDriftNotFoundError(id string) *GovernError {
	return New(ErrCodeDriftNotFound, fmt.Sprintf("drift event not found: %s", id)).
		WithSuggestion("Run 'govern drift list' to see recorded drift events")
}

// NewInvalidTransitionError is returned when a resolved drift event is reviewed again
func NewInvalidTransitionError(id string, current string) *GovernError {
	return New(ErrCodeDriftInvalidTransition, fmt.Sprintf("drift event %s is already %s", id, current)).
		WithSuggestion("Resolved drift events cannot be reviewed again")
}

// NewInvalidSeverityError creates an error for an unknown drift severity
func NewInvalidSeverityError(value string) *GovernError {
	return New(ErrCodeDriftInvalidSeverity, fmt.Sprintf("invalid severity %q", value)).
		WithSuggestion("Use one of: low, medium, high, critical")
}

// NewInvalidFixModeError creates an error for an unknown replay fix mode
func NewInvalidFixModeError(value string) *GovernError {
	return New(ErrCodeDriftInvalidFixMode, fmt.Sprintf("invalid fix mode %q", value)).
		WithSuggestion("Use one of: none, guided, auto")
}

// NewLockTimeoutError is returned when the drift log lock cannot be acquired in time
func NewLockTimeoutError(path string, cause error) *GovernError {
	return Wrap(ErrCodeDriftLockTimeout, fmt.Sprintf("could not lock %s", path), cause).
		WithSuggestion("Another review may be in progress; retry shortly")
}

// NewWaiverViolationError summarizes waiver files that failed validation
func NewWaiverViolationError(files int) *GovernError {
	return New(ErrCodeWaiverSchemaViolation, fmt.Sprintf("%d waiver file(s) have violations", files)).
		WithSuggestion("Fix the listed violations; invalid waivers never suppress a claim")
}

// NewWaiverParseError creates an error for an unparsable waiver file
func NewWaiverParseError(path string, cause error) *GovernError {
	return Wrap(ErrCodeWaiverParseFailure, fmt.Sprintf("failed to parse waiver: %s", path), cause)
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *GovernError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Check .govern/governance.yaml")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *GovernError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileReadError creates a read failure error
func NewFileReadError(path string, cause error) *GovernError {
	return Wrap(ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), cause)
}

// NewFileWriteError creates a write failure error
func NewFileWriteError(path string, cause error) *GovernError {
	return Wrap(ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), cause)
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *GovernError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
