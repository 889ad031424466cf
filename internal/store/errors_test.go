package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "generic_not_found", err: ErrNotFound, want: true},
		{name: "user_not_found", err: ErrUserNotFound, want: true},
		{name: "task_not_found", err: ErrTaskNotFound, want: true},
		{name: "wrapped_task_not_found", err: fmt.Errorf("lookup: %w", ErrTaskNotFound), want: true},
		{name: "duplicate", err: ErrDuplicate, want: false},
		{name: "executor_conflict", err: ErrExecutorConflict, want: false},
		{name: "plain_error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDuplicateError(ErrDuplicate))
	assert.True(t, IsDuplicateError(ErrUsernameExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("register: %w", ErrUsernameExists)))
	assert.False(t, IsDuplicateError(ErrNotFound))
	assert.False(t, IsDuplicateError(nil))
}
