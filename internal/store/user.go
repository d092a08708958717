package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Find returns the users matching q in the requested order and window.
	Find(ctx context.Context, q Query) ([]*domain.User, error)

	// Count returns how many users match f.
	Count(ctx context.Context, f Filter) (int, error)

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// Update replaces every mutable field of an existing user.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrEmailExists if updating to an email that already exists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their ID.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddPendingTask appends taskID to the user's pendingTasks unless it is
	// already present. Returns ErrUserNotFound if the user does not exist.
	AddPendingTask(ctx context.Context, userID uuid.UUID, taskID string) error

	// RemovePendingTask removes taskID from the user's pendingTasks.
	// Returns ErrUserNotFound if the user does not exist.
	RemovePendingTask(ctx context.Context, userID uuid.UUID, taskID string) error

	// SetPendingTasks overwrites only the user's pendingTasks, leaving every
	// other field as stored. Returns ErrUserNotFound if the user does not exist.
	SetPendingTasks(ctx context.Context, userID uuid.UUID, taskIDs []string) error

	// ReleaseTask removes taskID from the pendingTasks of every user except
	// keep. Passing uuid.Nil removes it from all users.
	ReleaseTask(ctx context.Context, taskID string, keep uuid.UUID) error
}
