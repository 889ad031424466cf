package memstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/store"
)

func newTestUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, username+"@example.com", "password123")
	require.NoError(t, err)
	return user
}

func TestUserStore_CreateHashesPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewUserStore()
	user := newTestUser(t, "alice")

	require.NoError(t, s.Create(ctx, user))
	assert.Empty(t, user.Password, "plaintext must be cleared after create")
	require.NotEmpty(t, user.HashedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(user.HashedPassword), []byte("password123")))

	got, err := s.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, user.HashedPassword, got.HashedPassword)
}

func TestUserStore_DuplicateUsername(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewUserStoreWithPlainPasswords()
	require.NoError(t, s.Create(ctx, newTestUser(t, "bob")))

	err := s.Create(ctx, newTestUser(t, "bob"))
	assert.ErrorIs(t, err, store.ErrUsernameExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestUserStore_GetByUsername(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewUserStoreWithPlainPasswords()
	user := newTestUser(t, "carol")
	require.NoError(t, s.Create(ctx, user))

	got, err := s.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStore_CreateValidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewUserStore()
	user := newTestUser(t, "dave")
	user.Email = "not-an-email"

	err := s.Create(ctx, user)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestUserStore_Purge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewUserStoreWithPlainPasswords()
	user := newTestUser(t, "erin")
	require.NoError(t, s.Create(ctx, user))

	require.NoError(t, s.Purge(ctx))

	_, err := s.GetByUsername(ctx, "erin")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	// The username is free again after a purge.
	assert.NoError(t, s.Create(ctx, newTestUser(t, "erin")))
}
