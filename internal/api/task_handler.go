package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskmarket/taskmarket-api/internal/api/shared"
	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/platform/logger"
	"github.com/taskmarket/taskmarket-api/internal/service/tasks"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService tasks.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService tasks.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		panic("taskService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	cost, err := domain.ParseCost(req.Cost)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	deadline, err := domain.ParseDeadline(req.Deadline)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	params := tasks.CreateTaskParams{
		Name:     req.Name,
		Cost:     cost,
		Deadline: deadline,
	}
	if req.Executor != nil {
		params.Executor = uuid.NullUUID{UUID: *req.Executor, Valid: true}
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, params)
	if err != nil {
		// Creation uses its own self-assignment wording.
		if errors.Is(err, tasks.ErrSelfAssignment) {
			shared.RespondWithError(
				w,
				r,
				http.StatusBadRequest,
				"The creator of a task cannot be its executor",
			)
			return
		}
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("creator_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// BecomeExecutor handles PATCH /api/tasks/{id}/executor requests. The
// authenticated user claims the task as its executor.
func (h *TaskHandler) BecomeExecutor(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if _, err := h.taskService.AssignExecutor(r.Context(), taskID, userID); err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("executor assigned",
		slog.String("task_id", taskID.String()),
		slog.String("executor_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: "You have been assigned as the executor of the task",
	})
}

// MarkDone handles PATCH /api/tasks/{id}/done requests.
func (h *TaskHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	task, err := h.taskService.MarkDone(r.Context(), taskID, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task marked done",
		slog.String("task_id", taskID.String()),
		slog.String("executor_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListCreated handles GET /api/tasks/created requests.
func (h *TaskHandler) ListCreated(w http.ResponseWriter, r *http.Request) {
	h.respondWithUserList(w, r, h.taskService.ListCreated)
}

// ListAssigned handles GET /api/tasks/assigned requests.
func (h *TaskHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	h.respondWithUserList(w, r, h.taskService.ListAssigned)
}

// ListUnassigned handles GET /api/tasks/unassigned requests. Tasks come
// back cheapest first.
func (h *TaskHandler) ListUnassigned(w http.ResponseWriter, r *http.Request) {
	list, err := h.taskService.ListUnassigned(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponses(list, taskToResponse))
}

// ListAll handles GET /api/tasks requests. The executor field of unassigned
// tasks is rendered as the "undefined" sentinel in this view.
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.taskService.ListAll(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponses(list, taskToNormalizedResponse))
}

// GetStats handles GET /api/users/me/stats requests.
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	stats, err := h.taskService.ComputeStats(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to compute statistics", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

// respondWithUserList serves the authenticated per-user listings.
func (h *TaskHandler) respondWithUserList(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error),
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	tasks, err := list(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w, r, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponses(tasks, taskToResponse))
}
