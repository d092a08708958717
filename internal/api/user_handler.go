package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/query"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UserRequest is the body of POST /users and PUT /users/{id}.
type UserRequest struct {
	Name         string          `json:"name" validate:"required"`
	Email        string          `json:"email" validate:"required"`
	PendingTasks json.RawMessage `json:"pendingTasks"`
	DateCreated  json.RawMessage `json:"dateCreated"`
	ID           json.RawMessage `json:"_id"`
}

// pendingTasks decodes the pendingTasks field. Absent and null both yield nil.
func (req *UserRequest) pendingTasks() ([]string, error) {
	if !present(req.PendingTasks) {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(req.PendingTasks, &ids); err != nil {
		return nil, domain.NewValidationError(
			"pendingTasks",
			"pendingTasks must be an array of task IDs",
			domain.ErrInvalidFormat,
		)
	}
	return ids, nil
}

// changesID reports whether the body carries an _id other than id.
func (req *UserRequest) changesID(id uuid.UUID) bool {
	if !present(req.ID) {
		return false
	}
	var raw string
	if err := json.Unmarshal(req.ID, &raw); err != nil {
		return true
	}
	parsed, err := domain.ParseID(raw)
	return err != nil || parsed != id
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService service.UserService
	strict      bool
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, strict bool, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		strict:      strict,
		logger:      logger.With(slog.String("component", "user_handler")),
	}
}

// ListUsers handles GET /users requests. No limit applies unless requested.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := query.ParseList(r.URL.Query(), store.UserSchema, query.Options{})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if list.Count {
		n, err := h.userService.Count(r.Context(), list.Query)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		shared.RespondWithData(w, r, http.StatusOK, n)
		return
	}

	users, err := h.userService.List(r.Context(), list.Query)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, render(users, list.Projection))
}

// CreateUser handles POST /users requests
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := shared.DecodeJSON(r, &req, h.strict); err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Name and email are required", err)
		return
	}
	if present(req.DateCreated) {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"dateCreated cannot be provided and will be set automatically by the server")
		return
	}

	pending, err := req.pendingTasks()
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	user, err := h.userService.Create(r.Context(), service.UserInput{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: pending,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "user created", slog.String("user_id", user.ID.String()))
	shared.RespondWithData(w, r, http.StatusCreated, user.Document())
}

// GetUser handles GET /users/{id} requests
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "User")
	if !ok {
		return
	}

	p, err := projection(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, p.Apply(user.Document()))
}

// ReplaceUser handles PUT /users/{id} requests. An omitted pendingTasks
// empties the list.
func (h *UserHandler) ReplaceUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "User")
	if !ok {
		return
	}

	var req UserRequest
	if err := shared.DecodeJSON(r, &req, h.strict); err != nil {
		respondWithError(w, r, err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Name and email are required", err)
		return
	}
	if req.changesID(id) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "_id cannot be modified")
		return
	}
	if present(req.DateCreated) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "dateCreated cannot be modified")
		return
	}

	pending, err := req.pendingTasks()
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	user, err := h.userService.Replace(r.Context(), id, service.UserInput{
		Name:         req.Name,
		Email:        req.Email,
		PendingTasks: pending,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, user.Document())
}

// DeleteUser handles DELETE /users/{id} requests
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "User")
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		respondWithError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "user deleted", slog.String("user_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
