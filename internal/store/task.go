package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasks-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
// Every method is a single statement and commits atomically.
type TaskStore interface {
	// Create inserts a new task, assigning its ID and timestamps in place.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// GetForUpdate retrieves a task and, inside a transaction, locks its row
	// until the transaction ends.
	// Returns ErrTaskNotFound if the task does not exist.
	GetForUpdate(ctx context.Context, id int64) (*domain.Task, error)

	// List returns every task ordered by ID ascending. The result is never nil.
	List(ctx context.Context) ([]*domain.Task, error)

	// Update writes the title, description and completed flag of an existing
	// task and refreshes UpdatedAt on the passed task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task permanently.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sql.Tx) TaskStore

	// DB returns the connection pool used to open transactions.
	DB() *sql.DB
}
