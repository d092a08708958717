package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnassignedUserName is the assignedUserName of a Task without an assignee.
const UnassignedUserName = "unassigned"

// Task is a unit of work with a deadline that may be assigned to a User.
//
// AssignedUser is the assignee's identifier, or the empty string when the task
// is unassigned. AssignedUserName always carries the assignee's current name,
// or UnassignedUserName.
type Task struct {
	ID               uuid.UUID `json:"_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Deadline         time.Time `json:"deadline"`
	Completed        bool      `json:"completed"`
	AssignedUser     string    `json:"assignedUser"`
	AssignedUserName string    `json:"assignedUserName"`
	DateCreated      time.Time `json:"dateCreated"`
}

// NewTask creates an unassigned Task with a fresh identifier and creation timestamp.
// Returns an error if validation fails.
func NewTask(name, description string, deadline time.Time, completed bool) (*Task, error) {
	task := &Task{
		ID:               uuid.New(),
		Name:             name,
		Description:      description,
		Deadline:         deadline.UTC().Truncate(time.Millisecond),
		Completed:        completed,
		AssignedUser:     "",
		AssignedUserName: UnassignedUserName,
		DateCreated:      Now(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("_id", "_id is required", ErrInvalidID)
	}
	if strings.TrimSpace(t.Name) == "" {
		return RequiredFieldError("name")
	}
	if t.Deadline.IsZero() {
		return RequiredFieldError("deadline")
	}
	if t.AssignedUser != "" && !IsValidID(t.AssignedUser) {
		return NewValidationError("assignedUser", "Assigned user not found", ErrInvalidID)
	}
	return nil
}

// AssignTo points the task at user, copying the user's current name.
func (t *Task) AssignTo(user *User) {
	t.AssignedUser = user.ID.String()
	t.AssignedUserName = user.Name
}

// Unassign clears the assignee.
func (t *Task) Unassign() {
	t.AssignedUser = ""
	t.AssignedUserName = UnassignedUserName
}

// IsAssigned reports whether the task has an assignee.
func (t *Task) IsAssigned() bool {
	return t.AssignedUser != ""
}

// IsPending reports whether the task belongs in its assignee's pendingTasks.
func (t *Task) IsPending() bool {
	return t.IsAssigned() && !t.Completed
}

// Document returns the task as a field map keyed by JSON names.
func (t *Task) Document() map[string]any {
	return map[string]any{
		"_id":              t.ID.String(),
		"name":             t.Name,
		"description":      t.Description,
		"deadline":         t.Deadline,
		"completed":        t.Completed,
		"assignedUser":     t.AssignedUser,
		"assignedUserName": t.AssignedUserName,
		"dateCreated":      t.DateCreated,
	}
}
