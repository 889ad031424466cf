package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskCreatorEmpty is returned when a task's creator ID is empty or nil.
	ErrTaskCreatorEmpty = errors.New("task creator ID cannot be empty")

	// ErrTaskNameEmpty is returned when a task's name is empty.
	ErrTaskNameEmpty = errors.New("task name cannot be empty")

	// ErrTaskCostNegative is returned when a task's cost is negative.
	ErrTaskCostNegative = errors.New("task cost cannot be negative")

	// ErrTaskCostPrecision is returned when a task's cost carries more than
	// two fractional digits.
	ErrTaskCostPrecision = errors.New("task cost must have at most two decimal places")

	// ErrTaskCostInvalid is returned when a cost string does not parse as a decimal.
	ErrTaskCostInvalid = errors.New("task cost must be a decimal number")

	// ErrTaskDeadlineEmpty is returned when a task's deadline is the zero time.
	ErrTaskDeadlineEmpty = errors.New("task deadline cannot be empty")

	// ErrTaskDeadlineInvalid is returned when a deadline string does not parse
	// as a calendar date.
	ErrTaskDeadlineInvalid = errors.New("task deadline must be a date in YYYY-MM-DD format")

	// ErrTaskCreatorIsExecutor is returned when a task's creator and executor
	// are the same user.
	ErrTaskCreatorIsExecutor = errors.New("the creator of a task cannot be its executor")

	// ErrTaskDoneWithoutExecutor is returned when a task is marked done while
	// it has no executor.
	ErrTaskDoneWithoutExecutor = errors.New("a task without an executor cannot be done")
)

// DeadlineFormat is the wire and storage format for task deadlines.
// Deadlines are calendar dates with no time component.
const DeadlineFormat = "2006-01-02"

// Task represents a unit of work offered on the marketplace. A task is owned
// by its creator, optionally claimed by an executor, and completed at most
// once by that executor.
type Task struct {
	ID        uuid.UUID       `json:"id"`
	Creator   uuid.UUID       `json:"creator"`
	Executor  uuid.NullUUID   `json:"executor"`
	Name      string          `json:"name"`
	Cost      decimal.Decimal `json:"cost"`
	Deadline  time.Time       `json:"deadline"`
	IsDone    bool            `json:"is_done"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewTask creates a new Task owned by the given creator. The executor is
// optional; pass an invalid uuid.NullUUID for an unassigned task. New tasks
// are never done. Returns an error if validation fails.
func NewTask(
	creator uuid.UUID,
	name string,
	cost decimal.Decimal,
	deadline time.Time,
	executor uuid.NullUUID,
) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:        uuid.New(),
		Creator:   creator,
		Executor:  executor,
		Name:      name,
		Cost:      cost,
		Deadline:  deadline,
		IsDone:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data and satisfies the marketplace
// invariants. Returns an error if any check fails.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Creator == uuid.Nil {
		return ErrTaskCreatorEmpty
	}

	if t.Name == "" {
		return ErrTaskNameEmpty
	}

	if t.Cost.IsNegative() {
		return ErrTaskCostNegative
	}

	if t.Cost.Exponent() < -2 {
		return ErrTaskCostPrecision
	}

	if t.Deadline.IsZero() {
		return ErrTaskDeadlineEmpty
	}

	if t.Executor.Valid && t.Executor.UUID == t.Creator {
		return ErrTaskCreatorIsExecutor
	}

	if t.IsDone && !t.Executor.Valid {
		return ErrTaskDoneWithoutExecutor
	}

	return nil
}

// IsAssigned reports whether the task has an executor.
func (t *Task) IsAssigned() bool {
	return t.Executor.Valid
}

// IsOverdue reports whether the task is undone and its deadline has passed
// relative to the given evaluation time. Overdue is a derived predicate,
// never stored state.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.IsDone {
		return false
	}
	today := now.UTC().Truncate(24 * time.Hour)
	return t.Deadline.Before(today)
}

// ParseCost parses a monetary amount from its wire representation into an
// exact decimal. Binary floats are never involved, so sums over many tasks
// cannot accumulate rounding drift.
func ParseCost(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, ErrTaskCostInvalid
	}
	cost, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrTaskCostInvalid
	}
	if cost.IsNegative() {
		return decimal.Decimal{}, ErrTaskCostNegative
	}
	if cost.Exponent() < -2 {
		return decimal.Decimal{}, ErrTaskCostPrecision
	}
	return cost, nil
}

// ParseDeadline parses a calendar date in YYYY-MM-DD format into the
// task deadline representation (UTC midnight).
func ParseDeadline(s string) (time.Time, error) {
	deadline, err := time.ParseInLocation(DeadlineFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrTaskDeadlineInvalid
	}
	return deadline, nil
}
