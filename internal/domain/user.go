package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a person tasks can be assigned to.
//
// PendingTasks mirrors the Task side of the relationship: it holds the
// identifiers of every Task assigned to this user that is not yet completed.
type User struct {
	ID           uuid.UUID `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PendingTasks []string  `json:"pendingTasks"`
	DateCreated  time.Time `json:"dateCreated"`
}

// NewUser creates a new User with a fresh identifier and creation timestamp.
// Duplicate entries in pendingTasks are dropped, keeping the first occurrence.
// Returns an error if validation fails.
func NewUser(name, email string, pendingTasks []string) (*User, error) {
	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PendingTasks: UniqueIDs(pendingTasks),
		DateCreated:  Now(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("_id", "_id is required", ErrInvalidID)
	}
	if strings.TrimSpace(u.Name) == "" {
		return RequiredFieldError("name")
	}
	if strings.TrimSpace(u.Email) == "" {
		return RequiredFieldError("email")
	}
	for _, taskID := range u.PendingTasks {
		if !IsValidID(taskID) {
			return NewValidationError("pendingTasks", "Invalid task ID in pendingTasks: "+taskID, ErrInvalidID)
		}
	}
	return nil
}

// HasPendingTask reports whether taskID is listed in PendingTasks.
func (u *User) HasPendingTask(taskID string) bool {
	for _, id := range u.PendingTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AddPendingTask appends taskID unless it is already present.
// It returns true when the list changed.
func (u *User) AddPendingTask(taskID string) bool {
	if u.HasPendingTask(taskID) {
		return false
	}
	u.PendingTasks = append(u.PendingTasks, taskID)
	return true
}

// RemovePendingTask removes every occurrence of taskID.
// It returns true when the list changed.
func (u *User) RemovePendingTask(taskID string) bool {
	kept := u.PendingTasks[:0]
	removed := false
	for _, id := range u.PendingTasks {
		if id == taskID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	u.PendingTasks = kept
	return removed
}

// Document returns the user as a field map keyed by JSON names.
func (u *User) Document() map[string]any {
	pending := u.PendingTasks
	if pending == nil {
		pending = []string{}
	}
	return map[string]any{
		"_id":          u.ID.String(),
		"name":         u.Name,
		"email":        u.Email,
		"pendingTasks": pending,
		"dateCreated":  u.DateCreated,
	}
}

// UniqueIDs returns ids without duplicates, preserving first-seen order.
// The result is never nil.
func UniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
