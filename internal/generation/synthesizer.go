package generation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/tasks-api/internal/domain"
)

// StockDescriptions are the descriptions handed out by the fallback tier.
var StockDescriptions = []string{
	"Research and plan this step",
	"Prepare resources",
	"Execute and review progress",
	"Collaborate with team",
	"Finalize and document",
}

// Synthesize deterministically builds exactly n candidates from prompt.
// Titles follow "{prompt} - Step {i}" and descriptions cycle through
// StockDescriptions.
func Synthesize(prompt string, n int) []domain.TaskCandidate {
	if n <= 0 {
		return []domain.TaskCandidate{}
	}
	prompt = strings.TrimSpace(prompt)
	out := make([]domain.TaskCandidate, n)
	for i := range out {
		out[i] = domain.TaskCandidate{
			Title:       fmt.Sprintf("%s - Step %d", prompt, i+1),
			Description: domain.StringPtr(StockDescriptions[i%len(StockDescriptions)]),
		}
	}
	return out
}
