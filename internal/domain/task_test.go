package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestNewTask(t *testing.T) {
	t.Parallel() // Enable parallel execution
	creator := uuid.New()
	executor := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	cost := decimal.RequireFromString("100.50")
	deadline := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	task, err := NewTask(creator, "Paint the fence", cost, deadline, executor)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if task.Creator != creator {
		t.Errorf("Expected creator %s, got %s", creator, task.Creator)
	}

	if !task.Executor.Valid || task.Executor.UUID != executor.UUID {
		t.Errorf("Expected executor %s, got %v", executor.UUID, task.Executor)
	}

	if task.IsDone {
		t.Error("Expected new task to not be done")
	}

	if !task.Cost.Equal(cost) {
		t.Errorf("Expected cost %s, got %s", cost, task.Cost)
	}

	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	// Unassigned task
	unassigned, err := NewTask(creator, "Walk the dog", cost, deadline, uuid.NullUUID{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if unassigned.IsAssigned() {
		t.Error("Expected task without executor to be unassigned")
	}

	// Creator as executor is rejected
	self := uuid.NullUUID{UUID: creator, Valid: true}
	_, err = NewTask(creator, "Paint the fence", cost, deadline, self)
	if err != ErrTaskCreatorIsExecutor {
		t.Errorf("Expected error %v, got %v", ErrTaskCreatorIsExecutor, err)
	}

	// Empty name
	_, err = NewTask(creator, "", cost, deadline, executor)
	if err != ErrTaskNameEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskNameEmpty, err)
	}

	// Negative cost
	_, err = NewTask(creator, "Paint the fence", decimal.RequireFromString("-1"), deadline, executor)
	if err != ErrTaskCostNegative {
		t.Errorf("Expected error %v, got %v", ErrTaskCostNegative, err)
	}

	// More than two decimal places
	_, err = NewTask(creator, "Paint the fence", decimal.RequireFromString("10.005"), deadline, executor)
	if err != ErrTaskCostPrecision {
		t.Errorf("Expected error %v, got %v", ErrTaskCostPrecision, err)
	}

	// Zero deadline
	_, err = NewTask(creator, "Paint the fence", cost, time.Time{}, executor)
	if err != ErrTaskDeadlineEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskDeadlineEmpty, err)
	}
}

func TestTaskValidate(t *testing.T) {
	t.Parallel() // Enable parallel execution
	validTask := Task{
		ID:       uuid.New(),
		Creator:  uuid.New(),
		Executor: uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Name:     "Fix the sink",
		Cost:     decimal.RequireFromString("25.00"),
		Deadline: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := validTask.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidTask := validTask
	invalidTask.ID = uuid.Nil
	if err := invalidTask.Validate(); err != ErrTaskIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskIDEmpty, err)
	}

	invalidTask = validTask
	invalidTask.Creator = uuid.Nil
	if err := invalidTask.Validate(); err != ErrTaskCreatorEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskCreatorEmpty, err)
	}

	// Done without an executor violates the lifecycle invariant
	invalidTask = validTask
	invalidTask.Executor = uuid.NullUUID{}
	invalidTask.IsDone = true
	if err := invalidTask.Validate(); err != ErrTaskDoneWithoutExecutor {
		t.Errorf("Expected error %v, got %v", ErrTaskDoneWithoutExecutor, err)
	}

	// Done with an executor is a valid terminal state
	doneTask := validTask
	doneTask.IsDone = true
	if err := doneTask.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestTaskIsOverdue(t *testing.T) {
	t.Parallel() // Enable parallel execution
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	task := Task{
		ID:       uuid.New(),
		Creator:  uuid.New(),
		Name:     "Overdue Task",
		Cost:     decimal.RequireFromString("10.00"),
		Deadline: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	if !task.IsOverdue(now) {
		t.Error("Expected undone task with past deadline to be overdue")
	}

	// A deadline of today is not yet overdue
	task.Deadline = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if task.IsOverdue(now) {
		t.Error("Expected task due today to not be overdue")
	}

	// Future deadline
	task.Deadline = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if task.IsOverdue(now) {
		t.Error("Expected task with future deadline to not be overdue")
	}

	// Done tasks are never overdue
	task.Deadline = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	task.Executor = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	task.IsDone = true
	if task.IsOverdue(now) {
		t.Error("Expected done task to not be overdue")
	}
}

func TestParseCost(t *testing.T) {
	t.Parallel() // Enable parallel execution
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "integer", input: "100", want: "100"},
		{name: "two_decimals", input: "100.50", want: "100.5"},
		{name: "zero", input: "0", want: "0"},
		{name: "empty", input: "", wantErr: ErrTaskCostInvalid},
		{name: "not_a_number", input: "abc", wantErr: ErrTaskCostInvalid},
		{name: "negative", input: "-5.00", wantErr: ErrTaskCostNegative},
		{name: "three_decimals", input: "1.005", wantErr: ErrTaskCostPrecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCost(tt.input)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ParseCost(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCost(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseCost(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDeadline(t *testing.T) {
	t.Parallel() // Enable parallel execution
	got, err := ParseDeadline("2024-06-01")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	for _, input := range []string{"", "June 1st", "2024-13-01", "01-06-2024"} {
		if _, err := ParseDeadline(input); err != ErrTaskDeadlineInvalid {
			t.Errorf("ParseDeadline(%q) error = %v, want %v", input, err, ErrTaskDeadlineInvalid)
		}
	}
}
