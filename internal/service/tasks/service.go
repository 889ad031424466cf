// Package tasks implements the marketplace task lifecycle: creation,
// executor assignment, completion, listings, and per-user statistics.
// Business authorization lives here; the store layer below only provides
// atomic write primitives.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/taskmarket-api/internal/domain"
)

// Common error types for TaskService
var (
	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrSelfAssignment indicates an attempt to make a task's creator its
	// executor, at creation or at claim time.
	ErrSelfAssignment = errors.New("task creator cannot be its executor")

	// ErrAlreadyAssigned indicates an executor claim on a task that already
	// has one.
	ErrAlreadyAssigned = errors.New("task already has an executor")

	// ErrNotAuthorized indicates a mark-done attempt by anyone other than
	// the task's executor.
	ErrNotAuthorized = errors.New("only the task executor may mark it done")
)

// CreateTaskParams carries the validated inputs for task creation. The
// executor is optional; an unknown executor ID is silently dropped rather
// than rejected, so a task can always be created unassigned.
type CreateTaskParams struct {
	Name     string
	Cost     decimal.Decimal
	Deadline time.Time
	Executor uuid.NullUUID
}

// UserStats aggregates a user's marketplace activity. Counts cover the
// tasks the user created ("owned"); TotalEarned covers the tasks the user
// executed. Overdue is evaluated against the service clock at query time,
// so the classification shifts as time advances.
type UserStats struct {
	CompletedTasks int
	PendingTasks   int
	OverdueTasks   int
	AssignedTasks  int
	TotalEarned    decimal.Decimal
	TotalSpent     decimal.Decimal
}

// TaskService provides the task lifecycle operations of the marketplace.
type TaskService interface {
	// CreateTask creates a new task owned by creatorID.
	// Returns ErrSelfAssignment if the requested executor is the creator;
	// this check happens before anything is persisted. A requested executor
	// that does not exist is silently dropped and the task is created
	// unassigned. Validation errors from the domain Task pass through.
	CreateTask(ctx context.Context, creatorID uuid.UUID, params CreateTaskParams) (*domain.Task, error)

	// GetTask retrieves a single task.
	// Returns ErrTaskNotFound if it does not exist.
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// AssignExecutor makes requesterID the executor of the task. Exactly one
	// of any set of concurrent claims on the same task succeeds.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns ErrSelfAssignment if the requester created the task.
	// Returns ErrAlreadyAssigned if the task already has an executor.
	AssignExecutor(ctx context.Context, taskID, requesterID uuid.UUID) (*domain.Task, error)

	// MarkDone marks the task complete on behalf of requesterID.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns ErrNotAuthorized unless the requester is the task's executor.
	// Marking an already-done task again is a no-op success.
	MarkDone(ctx context.Context, taskID, requesterID uuid.UUID) (*domain.Task, error)

	// ListCreated returns the tasks created by the user, in creation order.
	ListCreated(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListAssigned returns the tasks the user is executor of, in creation order.
	ListAssigned(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// ListUnassigned returns the open tasks, cheapest first, ties broken by
	// creation order.
	ListUnassigned(ctx context.Context) ([]*domain.Task, error)

	// ListAll returns every task, in creation order.
	ListAll(ctx context.Context) ([]*domain.Task, error)

	// ComputeStats computes the user's marketplace statistics. Sums use
	// exact decimal arithmetic; each underlying set is read once.
	ComputeStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}
