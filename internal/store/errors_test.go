package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
	}{
		{"nil", nil, false, false},
		{"unrelated", errors.New("boom"), false, false},
		{"not found", ErrNotFound, true, false},
		{"user not found", ErrUserNotFound, true, false},
		{"wrapped task not found", fmt.Errorf("load task: %w", ErrTaskNotFound), true, false},
		{"duplicate", ErrDuplicate, false, true},
		{"email exists", ErrEmailExists, false, true},
		{"store error over duplicate", NewStoreError("task", "create", "duplicate id", ErrDuplicate), false, true},
		{"invalid query", ErrInvalidQuery, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.duplicate, IsDuplicateError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewStoreError("user", "update", "write failed", cause)

		assert.Equal(t, "update operation on user failed: write failed: disk full", err.Error())
		assert.ErrorIs(t, err, cause)

		var target *StoreError
		assert.ErrorAs(t, fmt.Errorf("outer: %w", err), &target)
		assert.Equal(t, "user", target.Entity)
	})

	t.Run("without cause", func(t *testing.T) {
		err := NewStoreError("task", "delete", "nothing removed", nil)

		assert.Equal(t, "delete operation on task failed: nothing removed", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}
