package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskmarket/taskmarket-api/internal/api/shared"
	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/service/tasks"
)

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context. The auth middleware places it there.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts and parses a UUID from the URL path parameters.
// An id that cannot be parsed can never name a stored task, so it is
// reported the same way as a missing one.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a valid id", tasks.ErrTaskNotFound, pathParam)
	}

	return id, nil
}
