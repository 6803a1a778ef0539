package domain

import "time"

// Task is the single persisted record of the tracker.
//
// Description is nil when the task has no description, which is distinct from
// an empty string.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask validates the input and returns an unsaved Task. The ID and
// timestamps are assigned by the store on insert.
func NewTask(title string, description *string) (*Task, error) {
	clean, err := ValidateNewTask(title, description)
	if err != nil {
		return nil, err
	}
	return &Task{
		Title:       clean,
		Description: description,
		Completed:   false,
	}, nil
}

// TaskCandidate is a proposed task produced by generation before it is stored.
type TaskCandidate struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// TaskPatch is a partial update. Only fields whose Optional is Set are applied.
type TaskPatch struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Completed   Optional[bool]   `json:"completed"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set
}

// Apply overwrites the fields of t that are present in the patch and leaves
// the rest untouched. The patch must already have passed ValidatePatch.
// It reports whether any field was provided.
func (p TaskPatch) Apply(t *Task) bool {
	if p.Title.Set {
		t.Title = normalizeTitle(p.Title.Value)
	}
	if p.Description.Set {
		t.Description = p.Description.Ptr()
	}
	if p.Completed.Set {
		t.Completed = p.Completed.Value
	}
	return !p.IsEmpty()
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
