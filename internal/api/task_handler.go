package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/query"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TaskRequest is the body of POST /tasks and PUT /tasks/{id}.
type TaskRequest struct {
	Name             string          `json:"name" validate:"required"`
	Description      string          `json:"description"`
	Deadline         any             `json:"deadline" validate:"required"`
	Completed        any             `json:"completed"`
	AssignedUser     *string         `json:"assignedUser"`
	AssignedUserName *string         `json:"assignedUserName"`
	DateCreated      json.RawMessage `json:"dateCreated"`
	// ID is accepted so that fetched documents can be sent back unchanged.
	// It is never applied.
	ID json.RawMessage `json:"_id"`
}

// toInput converts the request into service input, parsing the loosely typed
// deadline and completed values.
func (req *TaskRequest) toInput() (service.TaskInput, error) {
	deadline, err := domain.ParseDate("deadline", req.Deadline)
	if err != nil {
		return service.TaskInput{}, err
	}
	completed, err := parseCompleted(req.Completed)
	if err != nil {
		return service.TaskInput{}, err
	}
	return service.TaskInput{
		Name:             req.Name,
		Description:      req.Description,
		Deadline:         deadline,
		Completed:        completed,
		AssignedUser:     req.AssignedUser,
		AssignedUserName: req.AssignedUserName,
	}, nil
}

// parseCompleted accepts a JSON boolean or the strings "true" and "false".
// An absent value is false.
func parseCompleted(v any) (bool, error) {
	switch c := v.(type) {
	case nil:
		return false, nil
	case bool:
		return c, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		}
	}
	return false, domain.NewValidationError(
		"completed",
		fmt.Sprintf("Invalid value for completed: %v", v),
		domain.ErrInvalidFormat,
	)
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService  service.TaskService
	defaultLimit *int
	strict       bool
	logger       *slog.Logger
}

// NewTaskHandler creates a new TaskHandler. defaultLimit caps GET /tasks when
// the request has no limit parameter; nil means no cap.
func NewTaskHandler(
	taskService service.TaskService,
	defaultLimit *int,
	strict bool,
	logger *slog.Logger,
) *TaskHandler {
	return &TaskHandler{
		taskService:  taskService,
		defaultLimit: defaultLimit,
		strict:       strict,
		logger:       logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks requests
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := query.ParseList(r.URL.Query(), store.TaskSchema, query.Options{DefaultLimit: h.defaultLimit})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if list.Count {
		n, err := h.taskService.Count(r.Context(), list.Query)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		shared.RespondWithData(w, r, http.StatusOK, n)
		return
	}

	tasks, err := h.taskService.List(r.Context(), list.Query)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, render(tasks, list.Projection))
}

// CreateTask handles POST /tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := shared.DecodeJSON(r, &req, h.strict); err != nil {
		respondWithError(w, r, err)
		return
	}

	if present(req.DateCreated) {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"dateCreated cannot be provided and will be set automatically by the server")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Name and deadline are required", err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithData(w, r, http.StatusCreated, task.Document())
}

// GetTask handles GET /tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}

	p, err := projection(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	task, err := h.taskService.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, p.Apply(task.Document()))
}

// ReplaceTask handles PUT /tasks/{id} requests
func (h *TaskHandler) ReplaceTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}

	var req TaskRequest
	if err := shared.DecodeJSON(r, &req, h.strict); err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Name and deadline are required", err)
		return
	}
	if present(req.DateCreated) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "dateCreated cannot be modified")
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	task, err := h.taskService.Replace(r.Context(), id, in)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, task.Document())
}

// DeleteTask handles DELETE /tasks/{id} requests
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), id); err != nil {
		respondWithError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "task deleted", slog.String("task_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
