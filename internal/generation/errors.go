package generation

import (
	"errors"
	"fmt"
)

// Errors returned by RawGenerator implementations and the response parser.
var (
	// ErrGenerationFailed is returned when generation fails for any general reason.
	ErrGenerationFailed = errors.New("failed to generate tasks")

	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry.
	ErrTransientFailure = errors.New("transient error during task generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// FailureReason classifies why the primary tier was abandoned.
type FailureReason string

const (
	ReasonNotConfigured FailureReason = "not_configured"
	ReasonInvocation    FailureReason = "invocation"
	ReasonTimeout       FailureReason = "timeout"
	ReasonMalformed     FailureReason = "malformed"
	ReasonPanic         FailureReason = "panic"
)

// Failure is the typed signal for a primary-tier problem. The Engine reports
// it in Result but never returns it as an error.
type Failure struct {
	Reason FailureReason
	Err    error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("primary generation tier failed: %s", f.Reason)
	}
	return fmt.Sprintf("primary generation tier failed: %s: %v", f.Reason, f.Err)
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}
