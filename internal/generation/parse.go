package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/tasks-api/internal/domain"
)

// UntitledPlaceholder replaces a missing or blank title in a model response.
const UntitledPlaceholder = "Untitled"

type rawCandidate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ParseCandidates decodes a model response into at most n candidates.
//
// The response must be a JSON array of objects, optionally wrapped in a
// markdown code fence or in an object with a "tasks" array. A missing or blank
// title becomes UntitledPlaceholder and a missing description stays nil.
// Fewer than n candidates are returned as-is. An empty array is rejected.
func ParseCandidates(raw string, n int) ([]domain.TaskCandidate, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	items, err := decodeItems([]byte(body))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no tasks in response", ErrInvalidResponse)
	}

	if n > 0 && len(items) > n {
		items = items[:n]
	}

	out := make([]domain.TaskCandidate, 0, len(items))
	for i, item := range items {
		var c rawCandidate
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			return nil, fmt.Errorf("%w: item %d is null", ErrInvalidResponse, i)
		}
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, fmt.Errorf("%w: item %d is not an object: %v", ErrInvalidResponse, i, err)
		}
		title := UntitledPlaceholder
		if c.Title != nil && strings.TrimSpace(*c.Title) != "" {
			title = strings.TrimSpace(*c.Title)
		}
		out = append(out, domain.TaskCandidate{Title: title, Description: c.Description})
	}
	return out, nil
}

func decodeItems(body []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Tasks == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of tasks", ErrInvalidResponse)
	}
	return wrapped.Tasks, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence if present.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
