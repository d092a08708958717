package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UserInput is the decoded body of a user create or replace request.
type UserInput struct {
	Name  string
	Email string
	// PendingTasks lists the tasks to assign to the user. Nil and empty both
	// mean none.
	PendingTasks []string
}

// UserService provides user operations that keep task assignments in step.
type UserService interface {
	// List returns the users matching q.
	List(ctx context.Context, q store.Query) ([]*domain.User, error)

	// Count returns the number of users List would return for q.
	Count(ctx context.Context, q store.Query) (int, error)

	// Get retrieves a user by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Create stores a new user and claims every task in its pendingTasks,
	// taking them away from any other user.
	Create(ctx context.Context, in UserInput) (*domain.User, error)

	// Replace overwrites a user. Tasks leaving pendingTasks are unassigned,
	// tasks entering it are claimed, and the user's name is copied onto every
	// task assigned to it.
	Replace(ctx context.Context, id uuid.UUID, in UserInput) (*domain.User, error)

	// Delete unassigns every task assigned to the user, then removes it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users  store.UserStore
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(users store.UserStore, tasks store.TaskStore, logger *slog.Logger) UserService {
	return &UserServiceImpl{
		users:  users,
		tasks:  tasks,
		logger: logger.With("component", "user_service"),
	}
}

func (s *UserServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// List implements UserService.List
func (s *UserServiceImpl) List(ctx context.Context, q store.Query) ([]*domain.User, error) {
	users, err := s.users.Find(ctx, q)
	return users, wrapError("user", "list", err)
}

// Count implements UserService.Count
func (s *UserServiceImpl) Count(ctx context.Context, q store.Query) (int, error) {
	total, err := s.users.Count(ctx, q.Filter)
	if err != nil {
		return 0, wrapError("user", "count", err)
	}
	return store.Page(total, q.Skip, q.Limit), nil
}

// Get implements UserService.Get
func (s *UserServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	return user, wrapError("user", "get", err)
}

// Create implements UserService.Create
func (s *UserServiceImpl) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	user, err := domain.NewUser(in.Name, in.Email, in.PendingTasks)
	if err != nil {
		return nil, err
	}

	claimed, err := s.loadTasks(ctx, user.PendingTasks)
	if err != nil {
		return nil, err
	}
	user.PendingTasks = pendingIDs(claimed)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.log(ctx).Debug("attempted to create user with existing email")
		} else {
			s.log(ctx).Error("failed to save user", "error", err, "user_id", user.ID)
		}
		return nil, wrapError("user", "create", err)
	}

	if err := s.claim(ctx, user, claimed); err != nil {
		return nil, wrapError("user", "create", err)
	}

	s.log(ctx).Info("user created",
		"user_id", user.ID,
		"pending_tasks", len(user.PendingTasks))
	return user, nil
}

// Replace implements UserService.Replace
func (s *UserServiceImpl) Replace(ctx context.Context, id uuid.UUID, in UserInput) (*domain.User, error) {
	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrapError("user", "replace", err)
	}

	updated := *existing
	updated.Name = in.Name
	updated.Email = in.Email
	updated.PendingTasks = domain.UniqueIDs(in.PendingTasks)
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	// Every referenced task must exist before anything is written.
	claimed, err := s.loadTasks(ctx, updated.PendingTasks)
	if err != nil {
		return nil, err
	}
	updated.PendingTasks = pendingIDs(claimed)

	released, err := s.releasedTasks(ctx, existing, claimed)
	if err != nil {
		return nil, wrapError("user", "replace", err)
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.log(ctx).Debug("attempted to update user to an existing email", "user_id", id)
		} else {
			s.log(ctx).Error("failed to update user", "error", err, "user_id", id)
		}
		return nil, wrapError("user", "replace", err)
	}

	if err := s.claim(ctx, &updated, claimed); err != nil {
		return nil, wrapError("user", "replace", err)
	}
	for _, taskID := range released {
		err := s.tasks.SetAssignment(ctx, taskID, "", domain.UnassignedUserName)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to unassign released task",
				"error", err,
				"user_id", id,
				"task_id", taskID)
			return nil, wrapError("user", "replace", err)
		}
	}

	renamed, err := s.tasks.UpdateAssigneeName(ctx, id.String(), updated.Name)
	if err != nil {
		s.log(ctx).Error("failed to propagate user name", "error", err, "user_id", id)
		return nil, wrapError("user", "replace", err)
	}

	s.log(ctx).Info("user replaced",
		"user_id", id,
		"pending_tasks", len(updated.PendingTasks),
		"released_tasks", len(released),
		"renamed_tasks", renamed)
	return &updated, nil
}

// Delete implements UserService.Delete
func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return wrapError("user", "delete", err)
	}

	unassigned, err := s.tasks.UnassignAll(ctx, id.String())
	if err != nil {
		s.log(ctx).Error("failed to unassign tasks of deleted user", "error", err, "user_id", id)
		return wrapError("user", "delete", err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		s.log(ctx).Error("failed to delete user", "error", err, "user_id", id)
		return wrapError("user", "delete", err)
	}

	s.log(ctx).Info("user deleted", "user_id", id, "unassigned_tasks", unassigned)
	return nil
}

// loadTasks fetches every task named in ids, in order, once per task however
// its id is spelled. The first id that is malformed or missing fails the
// whole lookup.
func (s *UserServiceImpl) loadTasks(ctx context.Context, ids []string) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, raw := range ids {
		taskID, err := domain.ParseID(raw)
		if err != nil {
			return nil, domain.NewValidationError("pendingTasks", "Invalid task ID in pendingTasks: "+raw, err)
		}
		if _, dup := seen[taskID]; dup {
			continue
		}
		seen[taskID] = struct{}{}
		task, err := s.tasks.GetByID(ctx, taskID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, pendingTaskNotFound(raw)
		}
		if err != nil {
			return nil, wrapError("user", "load_tasks", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// claim assigns every task to user and strips the tasks from the
// pendingTasks of any other user.
func (s *UserServiceImpl) claim(ctx context.Context, user *domain.User, tasks []*domain.Task) error {
	for _, task := range tasks {
		taskID := task.ID.String()
		if err := s.users.ReleaseTask(ctx, taskID, user.ID); err != nil {
			s.log(ctx).Error("failed to release task from other users",
				"error", err,
				"user_id", user.ID,
				"task_id", taskID)
			return err
		}
		if err := s.tasks.SetAssignment(ctx, task.ID, user.ID.String(), user.Name); err != nil {
			s.log(ctx).Error("failed to assign task",
				"error", err,
				"user_id", user.ID,
				"task_id", taskID)
			return err
		}
	}
	return nil
}

// releasedTasks returns the tasks that belong to existing before a replace
// but are not among claimed: the ids it listed plus any incomplete task still
// pointing at it.
func (s *UserServiceImpl) releasedTasks(
	ctx context.Context,
	existing *domain.User,
	claimed []*domain.Task,
) ([]uuid.UUID, error) {
	keep := make(map[uuid.UUID]struct{}, len(claimed))
	for _, task := range claimed {
		keep[task.ID] = struct{}{}
	}

	var released []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	add := func(id uuid.UUID) {
		if _, ok := keep[id]; ok {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		released = append(released, id)
	}

	for _, raw := range existing.PendingTasks {
		taskID, err := domain.ParseID(raw)
		if err != nil {
			continue
		}
		task, err := s.tasks.GetByID(ctx, taskID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if task.AssignedUser == existing.ID.String() {
			add(taskID)
		}
	}

	assigned, err := s.tasks.Find(ctx, store.Query{Filter: store.And{
		store.Eq("assignedUser", store.FieldString, existing.ID.String()),
		store.Eq("completed", store.FieldBool, false),
	}})
	if err != nil {
		return nil, err
	}
	for _, task := range assigned {
		add(task.ID)
	}
	return released, nil
}

// pendingIDs returns the ids of the incomplete tasks among tasks.
func pendingIDs(tasks []*domain.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		if !task.Completed {
			ids = append(ids, task.ID.String())
		}
	}
	return ids
}
