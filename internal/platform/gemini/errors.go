package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyPrompt is returned when the goal text is empty.
	ErrEmptyPrompt = errors.New("prompt text cannot be empty")
)
