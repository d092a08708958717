package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Sentinel errors for references in a request body that cannot be resolved.
// They are always wrapped in a RequestError carrying the client-facing text.
var (
	// ErrAssigneeNotFound indicates an assignedUser that is malformed or names
	// no existing user.
	ErrAssigneeNotFound = errors.New("assigned user not found")

	// ErrAssigneeNameMismatch indicates an assignedUserName that differs from
	// the resolved user's name.
	ErrAssigneeNameMismatch = errors.New("assigned user name mismatch")

	// ErrPendingTaskNotFound indicates a pendingTasks entry naming no existing task.
	ErrPendingTaskNotFound = errors.New("pending task not found")
)

// RequestError is a failure caused by the content of the request. Message is
// the complete text returned to the client.
type RequestError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// Unwrap returns the sentinel behind the failure.
func (e *RequestError) Unwrap() error {
	return e.Err
}

func assigneeNotFound() *RequestError {
	return &RequestError{Message: "Assigned user not found", Err: ErrAssigneeNotFound}
}

func assigneeNameMismatch() *RequestError {
	return &RequestError{
		Message: "Assigned user name does not match the provided user",
		Err:     ErrAssigneeNameMismatch,
	}
}

func pendingTaskNotFound(taskID string) *RequestError {
	return &RequestError{
		Message: fmt.Sprintf("Task in pendingTasks not found: %s", taskID),
		Err:     ErrPendingTaskNotFound,
	}
}

// ServiceError wraps an unexpected failure with the service and operation it
// occurred in.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// wrapError returns client-facing errors unchanged and wraps anything else in
// a ServiceError.
func wrapError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrDuplicate):
		return err
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}
