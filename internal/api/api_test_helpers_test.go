package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apimiddleware "github.com/taskmarket/taskmarket-api/internal/api/middleware"
	"github.com/taskmarket/taskmarket-api/internal/config"
	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/platform/memstore"
	"github.com/taskmarket/taskmarket-api/internal/service/auth"
	"github.com/taskmarket/taskmarket-api/internal/service/tasks"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:            "test-secret-of-at-least-32-characters!!",
	TokenLifetimeMinutes: 60,
}

// testEnv wires handlers, stores and a router the way cmd/server does,
// backed by the in-memory stores.
type testEnv struct {
	router      *chi.Mux
	userStore   *memstore.UserStore
	taskStore   *memstore.TaskStore
	taskService tasks.TaskService
	jwtService  auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userStore := memstore.NewUserStoreWithPlainPasswords()
	taskStore := memstore.NewTaskStore()

	jwtService, err := auth.NewJWTService(testAuthConfig)
	require.NoError(t, err)

	taskService := tasks.NewTaskService(taskStore, userStore, nil, nil)

	authHandler := NewAuthHandler(
		userStore, jwtService, plainVerifier{}, &testAuthConfig, nil)
	taskHandler := NewTaskHandler(taskService, nil)
	authMiddleware := apimiddleware.NewAuthMiddleware(jwtService)

	r := chi.NewRouter()
	r.Use(apimiddleware.TraceMiddleware)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/tasks", taskHandler.ListAll)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Patch("/tasks/{id}/executor", taskHandler.BecomeExecutor)
			r.Patch("/tasks/{id}/done", taskHandler.MarkDone)
			r.Get("/tasks/created", taskHandler.ListCreated)
			r.Get("/tasks/assigned", taskHandler.ListAssigned)
			r.Get("/tasks/unassigned", taskHandler.ListUnassigned)
			r.Get("/users/me/stats", taskHandler.GetStats)
		})
	})

	return &testEnv{
		router:      r,
		userStore:   userStore,
		taskStore:   taskStore,
		taskService: taskService,
		jwtService:  jwtService,
	}
}

// plainVerifier compares passwords directly, matching the plain-password
// user store so tests skip bcrypt.
type plainVerifier struct{}

func (plainVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword != password {
		return auth.ErrInvalidCredentials
	}
	return nil
}

// addUser creates a user directly in the store and returns its ID.
func (e *testEnv) addUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	user, err := domain.NewUser(username, username+"@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, e.userStore.Create(context.Background(), user))
	return user.ID
}

// tokenFor issues a valid access token for the user.
func (e *testEnv) tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := e.jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	return token
}

// doJSON performs a request against the router. A non-empty token is sent
// as a bearer credential; a non-nil body is JSON-encoded.
func (e *testEnv) doJSON(
	t *testing.T,
	method, path, token string,
	body interface{},
) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorded JSON response body.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// errorMessage extracts the error field from a recorded error response.
func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	return resp.Error
}
