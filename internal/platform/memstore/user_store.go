package memstore

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/store"
)

// UserStore is an in-memory store.UserStore.
type UserStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*domain.User
	byName  map[string]uuid.UUID
	hashing bool
}

// NewUserStore creates an empty in-memory user store. Passwords are hashed
// with bcrypt, matching the SQL store's behavior.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[uuid.UUID]*domain.User),
		byName:  make(map[string]uuid.UUID),
		hashing: true,
	}
}

// NewUserStoreWithPlainPasswords creates a store that skips bcrypt hashing.
// Only for tests that create many users and do not exercise login, where
// bcrypt's deliberate slowness is wasted time.
func NewUserStoreWithPlainPasswords() *UserStore {
	s := NewUserStore()
	s.hashing = false
	return s
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.WithTx. Operations are already
// serialized under the store mutex, so the store itself is returned.
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return s
}

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[user.Username]; exists {
		return store.ErrUsernameExists
	}

	if s.hashing {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.HashedPassword = string(hashed)
	} else {
		user.HashedPassword = user.Password
	}
	user.Password = ""

	stored := *user
	s.users[user.ID] = &stored
	s.byName[user.Username] = user.ID
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

// GetByUsername implements store.UserStore.GetByUsername
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

// Purge removes every user. Test-harness capability, mirroring the SQL store.
func (s *UserStore) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[uuid.UUID]*domain.User)
	s.byName = make(map[string]uuid.UUID)
	return nil
}
