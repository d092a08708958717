package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Find returns the tasks matching q in the requested order and window.
	Find(ctx context.Context, q Query) ([]*domain.Task, error)

	// Count returns how many tasks match f.
	Count(ctx context.Context, f Filter) (int, error)

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Create saves a new task to the store.
	Create(ctx context.Context, task *domain.Task) error

	// Update replaces every mutable field of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetAssignment overwrites only the assignment fields of a task.
	// Returns ErrTaskNotFound if the task does not exist.
	SetAssignment(ctx context.Context, id uuid.UUID, assignedUser, assignedUserName string) error

	// UpdateAssigneeName sets assignedUserName on every task assigned to userID
	// and returns the number of tasks changed.
	UpdateAssigneeName(ctx context.Context, userID string, name string) (int, error)

	// UnassignAll unassigns every task assigned to userID and returns the
	// number of tasks changed.
	UnassignAll(ctx context.Context, userID string) (int, error)
}
