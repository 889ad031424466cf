package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/platform/logger"
	"github.com/taskmarket/taskmarket-api/internal/store"
)

// Verify interface compliance at compile time
var _ TaskService = (*taskServiceImpl)(nil)

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	db        *sql.DB          // nil for stores without SQL transactions
	now       func() time.Time // Injectable for testing overdue classification
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService implementation. db may be nil
// when the backing stores need no SQL transactions (the in-memory stores);
// with a non-nil db the assign-executor transition runs its pre-checks and
// write in one transaction.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	db *sql.DB,
	logger *slog.Logger,
) TaskService {
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		db:        db,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("component", "task_service")),
	}
}

// CreateTask implements TaskService.CreateTask.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	creatorID uuid.UUID,
	params CreateTaskParams,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	executor := params.Executor
	if executor.Valid {
		// Self-assignment is a hard rejection, checked before anything is
		// persisted.
		if executor.UUID == creatorID {
			log.Warn("task creation rejected: creator requested self as executor",
				slog.String("creator_id", creatorID.String()))
			return nil, ErrSelfAssignment
		}

		// An executor that does not exist is dropped, not rejected: the
		// task is still created, just unassigned.
		if _, err := s.userStore.GetByID(ctx, executor.UUID); err != nil {
			if store.IsNotFoundError(err) {
				log.Debug("requested executor does not exist, creating task unassigned",
					slog.String("creator_id", creatorID.String()),
					slog.String("requested_executor", executor.UUID.String()))
				executor = uuid.NullUUID{}
			} else {
				log.Error("failed to look up requested executor",
					slog.String("error", err.Error()),
					slog.String("requested_executor", executor.UUID.String()))
				return nil, fmt.Errorf("failed to look up executor: %w", err)
			}
		}
	}

	task, err := domain.NewTask(creatorID, params.Name, params.Cost, params.Deadline, executor)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("creator_id", creatorID.String()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("creator_id", creatorID.String()),
		slog.Bool("assigned", task.IsAssigned()))
	return task, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// AssignExecutor implements TaskService.AssignExecutor.
// The pre-checks read the task without a lock; the store's guarded write
// decides the race, so losing a concurrent claim after passing the checks
// still surfaces as ErrAlreadyAssigned.
func (s *taskServiceImpl) AssignExecutor(
	ctx context.Context,
	taskID, requesterID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var assigned *domain.Task
	op := func(ctx context.Context, taskStore store.TaskStore) error {
		task, err := taskStore.GetByID(ctx, taskID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to get task: %w", err)
		}

		if task.Creator == requesterID {
			log.Warn("executor claim rejected: requester created the task",
				slog.String("task_id", taskID.String()),
				slog.String("requester_id", requesterID.String()))
			return ErrSelfAssignment
		}

		if task.IsAssigned() {
			return ErrAlreadyAssigned
		}

		assigned, err = taskStore.AssignExecutor(ctx, taskID, requesterID)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrExecutorConflict):
				return ErrAlreadyAssigned
			case store.IsNotFoundError(err):
				return ErrTaskNotFound
			default:
				return fmt.Errorf("failed to assign executor: %w", err)
			}
		}
		return nil
	}

	if err := s.runTaskOp(ctx, op); err != nil {
		if errors.Is(err, ErrAlreadyAssigned) {
			log.Debug("executor claim lost to an existing assignment",
				slog.String("task_id", taskID.String()),
				slog.String("requester_id", requesterID.String()))
		}
		return nil, err
	}

	log.Debug("executor assigned",
		slog.String("task_id", taskID.String()),
		slog.String("executor_id", requesterID.String()))
	return assigned, nil
}

// MarkDone implements TaskService.MarkDone.
func (s *taskServiceImpl) MarkDone(
	ctx context.Context,
	taskID, requesterID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var done *domain.Task
	op := func(ctx context.Context, taskStore store.TaskStore) error {
		task, err := taskStore.GetByID(ctx, taskID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to get task: %w", err)
		}

		// Only the executor completes a task. An unassigned task has no
		// executor, so nobody is authorized to complete it.
		if !task.Executor.Valid || task.Executor.UUID != requesterID {
			log.Warn("mark-done rejected: requester is not the executor",
				slog.String("task_id", taskID.String()),
				slog.String("requester_id", requesterID.String()))
			return ErrNotAuthorized
		}

		done, err = taskStore.MarkDone(ctx, taskID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to mark task done: %w", err)
		}
		return nil
	}

	if err := s.runTaskOp(ctx, op); err != nil {
		return nil, err
	}

	log.Debug("task marked done",
		slog.String("task_id", taskID.String()),
		slog.String("executor_id", requesterID.String()))
	return done, nil
}

// ListCreated implements TaskService.ListCreated.
func (s *taskServiceImpl) ListCreated(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created tasks: %w", err)
	}
	return tasks, nil
}

// ListAssigned implements TaskService.ListAssigned.
func (s *taskServiceImpl) ListAssigned(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListByExecutor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned tasks: %w", err)
	}
	return tasks, nil
}

// ListUnassigned implements TaskService.ListUnassigned.
func (s *taskServiceImpl) ListUnassigned(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListUnassigned(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned tasks: %w", err)
	}
	return tasks, nil
}

// ListAll implements TaskService.ListAll.
func (s *taskServiceImpl) ListAll(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ComputeStats implements TaskService.ComputeStats.
// One pass over the owned set, one over the worked set; decimal sums.
func (s *taskServiceImpl) ComputeStats(
	ctx context.Context,
	userID uuid.UUID,
) (*UserStats, error) {
	owned, err := s.taskStore.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list created tasks: %w", err)
	}
	worked, err := s.taskStore.ListByExecutor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned tasks: %w", err)
	}

	now := s.now()
	stats := &UserStats{
		TotalEarned: decimal.Zero,
		TotalSpent:  decimal.Zero,
	}

	for _, task := range owned {
		if task.IsDone {
			stats.CompletedTasks++
			stats.TotalSpent = stats.TotalSpent.Add(task.Cost)
			continue
		}
		stats.PendingTasks++
		if task.IsOverdue(now) {
			stats.OverdueTasks++
		}
		if task.IsAssigned() {
			stats.AssignedTasks++
		}
	}

	for _, task := range worked {
		if task.IsDone {
			stats.TotalEarned = stats.TotalEarned.Add(task.Cost)
		}
	}

	return stats, nil
}

// runTaskOp executes op against the task store. With a database handle the
// whole operation runs in one SQL transaction; without one the store's own
// serialization is the only coordination needed.
func (s *taskServiceImpl) runTaskOp(
	ctx context.Context,
	op func(ctx context.Context, taskStore store.TaskStore) error,
) error {
	if s.db == nil {
		return op(ctx, s.taskStore)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return op(ctx, s.taskStore.WithTx(tx))
	})
}
