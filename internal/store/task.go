package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskmarket/taskmarket-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
//
// The two lifecycle transitions (AssignExecutor, MarkDone) are atomic with
// respect to a single task record: implementations must guarantee that of
// two concurrent AssignExecutor calls on the same unassigned task exactly
// one succeeds and the other observes ErrExecutorConflict. SQL
// implementations achieve this with a guarded UPDATE; the in-memory
// implementation serializes transitions under a store mutex.
type TaskStore interface {
	// Create saves a new task to the store.
	// It validates the task before persisting.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// AssignExecutor sets the executor on an unassigned task and returns the
	// updated task. The business authorization checks belong to the caller;
	// this is the serializable write.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns ErrExecutorConflict if the task already has an executor.
	AssignExecutor(ctx context.Context, taskID, executorID uuid.UUID) (*domain.Task, error)

	// MarkDone marks a task as done and returns the updated task. Marking an
	// already-done task is a no-op that returns the unchanged task.
	// Returns ErrTaskNotFound if the task does not exist.
	MarkDone(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// ListByCreator returns all tasks created by the given user, in store
	// insertion order.
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*domain.Task, error)

	// ListByExecutor returns all tasks assigned to the given executor, in
	// store insertion order.
	ListByExecutor(ctx context.Context, executorID uuid.UUID) ([]*domain.Task, error)

	// ListUnassigned returns all tasks without an executor, ordered by cost
	// ascending with ties broken by creation order.
	ListUnassigned(ctx context.Context) ([]*domain.Task, error)

	// ListAll returns every task in the store, in insertion order.
	ListAll(ctx context.Context) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
