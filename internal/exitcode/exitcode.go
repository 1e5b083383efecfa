package exitcode

import (
	"os"
	"strings"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// BlockingFailure indicates at least one blocking claim failed without an active waiver
	BlockingFailure = 3

	// NotFound indicates a referenced drift event does not exist
	NotFound = 4

	// InvalidTransition indicates a review of an already resolved drift event
	InvalidTransition = 5

	// WaiverViolation indicates one or more waiver files failed validation
	WaiverViolation = 6

	// IOError indicates a log, schema or config file could not be read or written
	IOError = 7

	// Interrupted indicates the command was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Coded errors are mapped directly; anything else falls back to message matching.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code, ok := goverrors.CodeOf(err); ok {
		switch code {
		case goverrors.ErrCodeBlockingFailure:
			return BlockingFailure
		case goverrors.ErrCodeDriftNotFound:
			return NotFound
		case goverrors.ErrCodeDriftInvalidTransition:
			return InvalidTransition
		case goverrors.ErrCodeWaiverSchemaViolation, goverrors.ErrCodeWaiverParseFailure:
			return WaiverViolation
		case goverrors.ErrCodeFileNotFound, goverrors.ErrCodeFileReadFailed,
			goverrors.ErrCodeFileWriteFailed, goverrors.ErrCodeDirectoryFailed,
			goverrors.ErrCodeFileUnmarshal, goverrors.ErrCodeFileMarshal,
			goverrors.ErrCodeDriftLockTimeout:
			return IOError
		case goverrors.ErrCodeDriftInvalidSeverity, goverrors.ErrCodeDriftInvalidFixMode:
			return UsageError
		}
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "blocking claim") {
		return BlockingFailure
	}

	if strings.Contains(errMsg, "not found") {
		return NotFound
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}
	if strings.Contains(errMsg, "accepts") && strings.Contains(errMsg, "arg(s)") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case BlockingFailure:
		return "Blocking claim failure"
	case NotFound:
		return "Drift event not found"
	case InvalidTransition:
		return "Invalid drift review transition"
	case WaiverViolation:
		return "Waiver validation failed"
	case IOError:
		return "File I/O error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
