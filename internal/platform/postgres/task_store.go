package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/platform/logger"
	"github.com/taskmarket/taskmarket-api/internal/store"
)

// taskColumns is the canonical column list scanned by scanTask.
const taskColumns = "id, creator, executor, name, cost, deadline, is_done, created_at, updated_at"

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed
// by the caller. If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns validation errors from the domain Task if data is invalid.
// Returns store.ErrInvalidEntity if the creator or executor doesn't exist
// (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, creator, executor, name, cost, deadline, is_done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Creator,
		task.Executor,
		task.Name,
		task.Cost,
		task.Deadline,
		task.IsDone,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("creator", task.Creator.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("creator", task.Creator.String()),
		slog.Bool("assigned", task.Executor.Valid))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// AssignExecutor implements store.TaskStore.AssignExecutor
// The guarded UPDATE makes the transition atomic: of two concurrent calls on
// the same unassigned task, exactly one matches the executor IS NULL
// predicate; the other observes store.ErrExecutorConflict.
func (s *PostgresTaskStore) AssignExecutor(
	ctx context.Context,
	taskID, executorID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET executor = $2, updated_at = $3
		WHERE id = $1 AND executor IS NULL
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, executorID, time.Now().UTC()))
	if err == nil {
		log.Info("executor assigned",
			slog.String("task_id", taskID.String()),
			slog.String("executor", executorID.String()))
		return task, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to assign executor",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}

	// No row matched: the task is either missing or already assigned.
	if _, getErr := s.GetByID(ctx, taskID); getErr != nil {
		return nil, getErr
	}

	log.Debug("assign-executor lost to existing assignment",
		slog.String("task_id", taskID.String()),
		slog.String("executor", executorID.String()))
	return nil, store.ErrExecutorConflict
}

// MarkDone implements store.TaskStore.MarkDone
// Marking an already-done task leaves the row untouched and returns it
// unchanged. Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) MarkDone(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET is_done = TRUE, updated_at = $2
		WHERE id = $1 AND NOT is_done
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskID, time.Now().UTC()))
	if err == nil {
		log.Info("task marked done", slog.String("task_id", taskID.String()))
		return task, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to mark task done",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, MapError(err)
	}

	// No row matched: either the task is missing or it was already done.
	// Already-done is a no-op success and returns the unchanged task.
	return s.GetByID(ctx, taskID)
}

// ListByCreator implements store.TaskStore.ListByCreator
func (s *PostgresTaskStore) ListByCreator(
	ctx context.Context,
	creatorID uuid.UUID,
) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE creator = $1 ORDER BY created_at, id`
	return s.listTasks(ctx, query, creatorID)
}

// ListByExecutor implements store.TaskStore.ListByExecutor
func (s *PostgresTaskStore) ListByExecutor(
	ctx context.Context,
	executorID uuid.UUID,
) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE executor = $1 ORDER BY created_at, id`
	return s.listTasks(ctx, query, executorID)
}

// ListUnassigned implements store.TaskStore.ListUnassigned
// The ordering is contractual: cost ascending, ties broken by creation order.
func (s *PostgresTaskStore) ListUnassigned(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE executor IS NULL ORDER BY cost, created_at, id`
	return s.listTasks(ctx, query)
}

// ListAll implements store.TaskStore.ListAll
func (s *PostgresTaskStore) ListAll(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`
	return s.listTasks(ctx, query)
}

// Purge removes every task from the store. Administrative/test-harness
// capability only; deliberately not part of the store.TaskStore contract.
func (s *PostgresTaskStore) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return MapError(err)
	}
	return nil
}

// listTasks runs a query returning task rows and scans them into a slice.
func (s *PostgresTaskStore) listTasks(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return tasks, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans a single task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Creator,
		&task.Executor,
		&task.Name,
		&task.Cost,
		&task.Deadline,
		&task.IsDone,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
