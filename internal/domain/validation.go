package domain

import (
	"fmt"
	"strings"
)

// DefaultMaxGenerate is the batch limit used when none is configured.
const DefaultMaxGenerate = 20

// ValidateNewTask checks a create payload and returns the trimmed title.
func ValidateNewTask(title string, _ *string) (string, error) {
	return validateTitle(title)
}

// ValidatePatch checks the fields present in a partial update. An absent title
// means "unchanged"; a provided title must be non-empty. Description may be
// null, which clears it.
func ValidatePatch(p TaskPatch) error {
	if p.Title.Set {
		if p.Title.Null {
			return NewValidationError("title", "cannot be null", ErrNullField)
		}
		if _, err := validateTitle(p.Title.Value); err != nil {
			return err
		}
	}
	if p.Completed.Set && p.Completed.Null {
		return NewValidationError("completed", "cannot be null", ErrNullField)
	}
	return nil
}

// ValidateGenerateRequest checks an autogenerate request: the prompt must be
// non-blank and n must lie in 1..max. A max of zero or less falls back to
// DefaultMaxGenerate.
func ValidateGenerateRequest(prompt string, n, max int) error {
	if max <= 0 {
		max = DefaultMaxGenerate
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return NewValidationError("prompt", "is required", ErrValidation)
	}
	if n < 1 || n > max {
		return NewValidationError("n", fmt.Sprintf("must be between 1 and %d", max), ErrValidation)
	}
	return nil
}

func validateTitle(title string) (string, error) {
	clean := normalizeTitle(title)
	if clean == "" {
		return "", NewValidationError("title", "is required", ErrEmptyTitle)
	}
	return clean, nil
}

func normalizeTitle(title string) string {
	return strings.TrimSpace(title)
}
