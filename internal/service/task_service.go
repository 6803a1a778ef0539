package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/generation"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/store"
)

// Generator produces task candidates. *generation.Engine satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, n int) generation.Result
}

// AutogenerateResult is the outcome of TaskService.Autogenerate.
type AutogenerateResult struct {
	// Tasks are the stored tasks in generation order.
	Tasks []*domain.Task
	// Tier is the generation tier that produced the candidates.
	Tier generation.Tier
}

// TaskService provides task operations.
type TaskService interface {
	// CreateTask validates and stores a new, incomplete task.
	CreateTask(ctx context.Context, title string, description *string) (*domain.Task, error)

	// ListTasks returns every task ordered by ID. The result is never nil.
	ListTasks(ctx context.Context) ([]*domain.Task, error)

	// GetTask returns one task or ErrTaskNotFound.
	GetTask(ctx context.Context, id int64) (*domain.Task, error)

	// UpdateTask applies a partial update atomically and returns the new state.
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteTask removes a task permanently.
	DeleteTask(ctx context.Context, id int64) error

	// Autogenerate creates up to n tasks from prompt. Only request validation
	// and storage can fail; generation problems fall back silently.
	Autogenerate(ctx context.Context, prompt string, n int) (*AutogenerateResult, error)
}

type taskServiceImpl struct {
	tasks       store.TaskStore
	generator   Generator
	maxGenerate int
	logger      *slog.Logger
}

// NewTaskService creates a TaskService. maxGenerate caps Autogenerate batch
// sizes; zero or less means domain.DefaultMaxGenerate.
func NewTaskService(
	tasks store.TaskStore,
	generator Generator,
	maxGenerate int,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "task store cannot be nil"}
	}
	if generator == nil {
		return nil, &TaskServiceError{Operation: "create_service", Message: "generator cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxGenerate <= 0 {
		maxGenerate = domain.DefaultMaxGenerate
	}

	return &taskServiceImpl{
		tasks:       tasks,
		generator:   generator,
		maxGenerate: maxGenerate,
		logger:      logger.With(slog.String("component", "task_service")),
	}, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, title string, description *string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(title, description)
	if err != nil {
		log.Debug("rejected task", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created", slog.Int64("task_id", task.ID))
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).
			Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id))
		}
		return nil, NewTaskServiceError("get_task", "failed to get task", err)
	}
	return task, nil
}

// UpdateTask locks the row, applies the patch and writes it back in one
// transaction so concurrent patches to the same task never interleave.
func (s *taskServiceImpl) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePatch(patch); err != nil {
		log.Debug("rejected task patch",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.tasks.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.tasks.WithTx(tx)

		task, err := txStore.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !patch.Apply(task) {
			updated = task
			return nil
		}
		if err := txStore.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to update task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id))
		}
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}

	log.Info("task updated", slog.Int64("task_id", id))
	return updated, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id))
		}
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted", slog.Int64("task_id", id))
	return nil
}

// Autogenerate inserts candidates one at a time. A storage failure stops the
// batch; tasks inserted before it stay stored.
func (s *taskServiceImpl) Autogenerate(ctx context.Context, prompt string, n int) (*AutogenerateResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateGenerateRequest(prompt, n, s.maxGenerate); err != nil {
		return nil, err
	}

	result := s.generator.Generate(ctx, prompt, n)

	tasks := make([]*domain.Task, 0, len(result.Candidates))
	for i, candidate := range result.Candidates {
		task, err := domain.NewTask(candidate.Title, candidate.Description)
		if err != nil {
			return nil, &TaskServiceError{Operation: "autogenerate", Message: "generated task is invalid", Err: err}
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			log.Error("failed to store generated task",
				slog.String("error", err.Error()),
				slog.Int("index", i),
				slog.Int("stored", len(tasks)))
			return nil, NewTaskServiceError("autogenerate", "failed to save generated task", err)
		}
		tasks = append(tasks, task)
	}

	log.Info("tasks autogenerated",
		slog.String("tier", string(result.Tier)),
		slog.Int("requested", n),
		slog.Int("created", len(tasks)))

	return &AutogenerateResult{Tasks: tasks, Tier: result.Tier}, nil
}
