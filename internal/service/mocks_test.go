package service

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/generation"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore mocks store.TaskStore
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) GetForUpdate(ctx context.Context, id int64) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}

func (m *MockTaskStore) DB() *sql.DB {
	return nil
}

// stubGenerator returns a fixed result and records what it was asked for.
type stubGenerator struct {
	result generation.Result
	prompt string
	n      int
	calls  int
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, n int) generation.Result {
	g.prompt, g.n = prompt, n
	g.calls++
	return g.result
}

// failAfterStore wraps a real store and fails Create once limit inserts succeeded.
type failAfterStore struct {
	store.TaskStore
	limit   int
	created int
	err     error
}

func (s *failAfterStore) Create(ctx context.Context, task *domain.Task) error {
	if s.created >= s.limit {
		return s.err
	}
	s.created++
	return s.TaskStore.Create(ctx, task)
}
