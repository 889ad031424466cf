// Package memstore provides in-memory implementations of the store
// interfaces. They honor the same atomicity contract as the SQL stores by
// serializing lifecycle transitions under a store mutex, which makes them
// suitable for tests and local development without a database.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/store"
)

// TaskStore is an in-memory store.TaskStore.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
	order []uuid.UUID // insertion order
}

// NewTaskStore creates an empty in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.WithTx. The in-memory store has no SQL
// transactions; every operation is already serialized under the store mutex,
// so the store itself is returned.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return s
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}

	s.tasks[task.ID] = cloneTask(task)
	s.order = append(s.order, task.ID)
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// AssignExecutor implements store.TaskStore.AssignExecutor
// The whole read-check-write happens under the write lock, so of two
// concurrent calls on the same unassigned task exactly one succeeds.
func (s *TaskStore) AssignExecutor(
	ctx context.Context,
	taskID, executorID uuid.UUID,
) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if task.Executor.Valid {
		return nil, store.ErrExecutorConflict
	}

	task.Executor = uuid.NullUUID{UUID: executorID, Valid: true}
	task.UpdatedAt = time.Now().UTC()
	return cloneTask(task), nil
}

// MarkDone implements store.TaskStore.MarkDone
func (s *TaskStore) MarkDone(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if !task.IsDone {
		task.IsDone = true
		task.UpdatedAt = time.Now().UTC()
	}
	return cloneTask(task), nil
}

// ListByCreator implements store.TaskStore.ListByCreator
func (s *TaskStore) ListByCreator(
	ctx context.Context,
	creatorID uuid.UUID,
) ([]*domain.Task, error) {
	return s.list(func(t *domain.Task) bool { return t.Creator == creatorID }), nil
}

// ListByExecutor implements store.TaskStore.ListByExecutor
func (s *TaskStore) ListByExecutor(
	ctx context.Context,
	executorID uuid.UUID,
) ([]*domain.Task, error) {
	return s.list(func(t *domain.Task) bool {
		return t.Executor.Valid && t.Executor.UUID == executorID
	}), nil
}

// ListUnassigned implements store.TaskStore.ListUnassigned
// Ordered by cost ascending, ties broken by insertion order.
func (s *TaskStore) ListUnassigned(ctx context.Context) ([]*domain.Task, error) {
	tasks := s.list(func(t *domain.Task) bool { return !t.Executor.Valid })
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Cost.LessThan(tasks[j].Cost)
	})
	return tasks, nil
}

// ListAll implements store.TaskStore.ListAll
func (s *TaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	return s.list(func(*domain.Task) bool { return true }), nil
}

// Purge removes every task. Test-harness capability, mirroring the SQL store.
func (s *TaskStore) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[uuid.UUID]*domain.Task)
	s.order = nil
	return nil
}

// list returns clones of tasks matching the predicate, in insertion order.
func (s *TaskStore) list(match func(*domain.Task) bool) []*domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*domain.Task
	for _, id := range s.order {
		if task := s.tasks[id]; match(task) {
			tasks = append(tasks, cloneTask(task))
		}
	}
	return tasks
}

// cloneTask copies a task so callers never share memory with stored state.
func cloneTask(task *domain.Task) *domain.Task {
	clone := *task
	return &clone
}
