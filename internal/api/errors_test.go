package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/query"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "user not found",
			err:            fmt.Errorf("get: %w", store.ErrUserNotFound),
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "User not found",
		},
		{
			name:           "task not found",
			err:            store.ErrTaskNotFound,
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Task not found",
		},
		{
			name:           "email exists",
			err:            store.ErrEmailExists,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "User with this email already exists",
		},
		{
			name:           "query parameter",
			err:            &query.ParseError{Param: "where", Reason: "bad json"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid where parameter",
		},
		{
			name:           "cast failure",
			err:            &store.CastError{Field: "_id", Value: "abc", Type: store.FieldID},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid ID format for _id: abc",
		},
		{
			name:           "validation",
			err:            domain.RequiredFieldError("deadline"),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "deadline is required",
		},
		{
			name:           "request error",
			err:            &service.RequestError{Message: "Assigned user not found", Err: service.ErrAssigneeNotFound},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Assigned user not found",
		},
		{
			name:           "invalid body",
			err:            fmt.Errorf("%w: unexpected EOF", shared.ErrInvalidBody),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid JSON body",
		},
		{
			name:           "invalid query reaching the store",
			err:            fmt.Errorf("%w: unknown field \"color\"", store.ErrInvalidQuery),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid query: unknown field \"color\"",
		},
		{
			name: "service failure exposes the underlying message",
			err: &service.ServiceError{
				Service: "task",
				Op:      "create",
				Err:     errors.New("connection refused"),
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "connection refused",
		},
		{
			name:           "unknown error",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "boom",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStatus, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.expectedMsg, ErrorMessage(tc.err))
		})
	}
}

func TestErrorMessageNil(t *testing.T) {
	assert.Equal(t, "Internal Server Error", ErrorMessage(nil))
}
