package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
	}{
		{"nil", nil, false, false},
		{"generic", errors.New("boom"), false, false},
		{"task not found", ErrTaskNotFound, true, false},
		{"wrapped user not found", fmt.Errorf("lookup: %w", ErrUserNotFound), true, false},
		{"username exists", ErrUsernameExists, false, true},
		{"store error wrapping not found", NewStoreError("task", "get", "missing", ErrTaskNotFound), true, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.notFound, IsNotFoundError(tc.err))
			assert.Equal(t, tc.duplicate, IsDuplicateError(tc.err))
		})
	}
}

func TestStoreErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewStoreError("task", "update", "write failed", errors.New("conn reset"))
	assert.Equal(t, "update operation on task failed: write failed: conn reset", err.Error())

	bare := NewStoreError("user", "delete", "not allowed", nil)
	assert.Equal(t, "delete operation on user failed: not allowed", bare.Error())
}
