package api

import (
	"github.com/google/uuid"

	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/service/tasks"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RegisterResponse defines the successful response for user registration.
type RegisterResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for the login endpoint.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// Token is the JWT access token used for API authorization
	Token string `json:"token"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CreateTaskRequest defines the payload for task creation. Cost arrives as
// a decimal string and deadline as a calendar date; both are parsed with
// exact typed parsers rather than floats.
type CreateTaskRequest struct {
	Name     string     `json:"name"     validate:"required"`
	Cost     string     `json:"cost"     validate:"required"`
	Deadline string     `json:"deadline" validate:"required"`
	Executor *uuid.UUID `json:"executor,omitempty"`
}

// TaskResponse represents a task in API responses. Cost is a fixed-point
// decimal string with exactly two fractional digits; Executor is null for
// unassigned tasks, or the literal string "undefined" in the normalized
// list-all view.
type TaskResponse struct {
	ID       uuid.UUID `json:"id"`
	Creator  uuid.UUID `json:"creator"`
	Executor *string   `json:"executor"`
	Name     string    `json:"name"`
	Cost     string    `json:"cost"`
	Deadline string    `json:"deadline"`
	IsDone   bool      `json:"is_done"`
}

// MessageResponse carries a human-readable success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatsResponse defines the per-user statistics payload. Money fields are
// fixed-point decimal strings, never binary floats.
type StatsResponse struct {
	CompletedTasks int    `json:"completed_tasks"`
	PendingTasks   int    `json:"pending_tasks"`
	OverdueTasks   int    `json:"overdue_tasks"`
	AssignedTasks  int    `json:"assigned_tasks"`
	TotalEarned    string `json:"total_earned"`
	TotalSpent     string `json:"total_spent"`
}

// unassignedExecutorSentinel is the executor marker used by the normalized
// list-all view in place of null. Display-level substitution only; stored
// data is never mutated.
const unassignedExecutorSentinel = "undefined"

// taskToResponse converts a domain task to its API representation.
func taskToResponse(task *domain.Task) TaskResponse {
	var executor *string
	if task.Executor.Valid {
		s := task.Executor.UUID.String()
		executor = &s
	}
	return TaskResponse{
		ID:       task.ID,
		Creator:  task.Creator,
		Executor: executor,
		Name:     task.Name,
		Cost:     task.Cost.StringFixed(2),
		Deadline: task.Deadline.Format(domain.DeadlineFormat),
		IsDone:   task.IsDone,
	}
}

// taskToNormalizedResponse is taskToResponse with the unassigned-executor
// sentinel substituted for null.
func taskToNormalizedResponse(task *domain.Task) TaskResponse {
	resp := taskToResponse(task)
	if resp.Executor == nil {
		s := unassignedExecutorSentinel
		resp.Executor = &s
	}
	return resp
}

// tasksToResponses converts a task list using the given converter.
func tasksToResponses(
	list []*domain.Task,
	convert func(*domain.Task) TaskResponse,
) []TaskResponse {
	responses := make([]TaskResponse, 0, len(list))
	for _, task := range list {
		responses = append(responses, convert(task))
	}
	return responses
}

// statsToResponse converts service statistics to their API representation.
func statsToResponse(stats *tasks.UserStats) StatsResponse {
	return StatsResponse{
		CompletedTasks: stats.CompletedTasks,
		PendingTasks:   stats.PendingTasks,
		OverdueTasks:   stats.OverdueTasks,
		AssignedTasks:  stats.AssignedTasks,
		TotalEarned:    stats.TotalEarned.StringFixed(2),
		TotalSpent:     stats.TotalSpent.StringFixed(2),
	}
}
