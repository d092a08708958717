package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TaskInput is the decoded body of a task create or replace request.
type TaskInput struct {
	Name        string
	Description string
	Deadline    time.Time
	Completed   bool
	// AssignedUser is nil when the body omits it. Nil and "" both mean
	// unassigned.
	AssignedUser *string
	// AssignedUserName, when present, must equal the resolved assignee's name.
	// It is only checked on replace.
	AssignedUserName *string
}

// TaskService provides task operations that keep assignee pendingTasks in step.
type TaskService interface {
	// List returns the tasks matching q.
	List(ctx context.Context, q store.Query) ([]*domain.Task, error)

	// Count returns the number of tasks List would return for q.
	Count(ctx context.Context, q store.Query) (int, error)

	// Get retrieves a task by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Create stores a new task, resolving its assignee and adding it to the
	// assignee's pendingTasks when it is not completed.
	Create(ctx context.Context, in TaskInput) (*domain.Task, error)

	// Replace overwrites every client-settable field of a task. Omitting the
	// assignee unassigns the task.
	Replace(ctx context.Context, id uuid.UUID, in TaskInput) (*domain.Task, error)

	// Delete removes a task and drops it from its assignee's pendingTasks.
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	tasks  store.TaskStore
	users  store.UserStore
	logger *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks store.TaskStore, users store.UserStore, logger *slog.Logger) TaskService {
	return &TaskServiceImpl{
		tasks:  tasks,
		users:  users,
		logger: logger.With("component", "task_service"),
	}
}

func (s *TaskServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// List implements TaskService.List
func (s *TaskServiceImpl) List(ctx context.Context, q store.Query) ([]*domain.Task, error) {
	tasks, err := s.tasks.Find(ctx, q)
	return tasks, wrapError("task", "list", err)
}

// Count implements TaskService.Count
func (s *TaskServiceImpl) Count(ctx context.Context, q store.Query) (int, error) {
	total, err := s.tasks.Count(ctx, q.Filter)
	if err != nil {
		return 0, wrapError("task", "count", err)
	}
	return store.Page(total, q.Skip, q.Limit), nil
}

// Get implements TaskService.Get
func (s *TaskServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	return task, wrapError("task", "get", err)
}

// Create implements TaskService.Create
func (s *TaskServiceImpl) Create(ctx context.Context, in TaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(in.Name, in.Description, in.Deadline, in.Completed)
	if err != nil {
		return nil, err
	}

	assignee, err := s.resolveAssignee(ctx, in.AssignedUser)
	if err != nil {
		return nil, err
	}
	if assignee != nil {
		task.AssignTo(assignee)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.log(ctx).Error("failed to save task", "error", err, "task_id", task.ID)
		return nil, wrapError("task", "create", err)
	}

	if task.IsPending() {
		if err := s.users.AddPendingTask(ctx, assignee.ID, task.ID.String()); err != nil {
			s.log(ctx).Error("failed to add task to assignee",
				"error", err,
				"task_id", task.ID,
				"user_id", assignee.ID)
			return nil, wrapError("task", "create", err)
		}
	}

	s.log(ctx).Info("task created",
		"task_id", task.ID,
		"assigned_user", task.AssignedUser)
	return task, nil
}

// Replace implements TaskService.Replace
func (s *TaskServiceImpl) Replace(ctx context.Context, id uuid.UUID, in TaskInput) (*domain.Task, error) {
	existing, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, wrapError("task", "replace", err)
	}

	assignee, err := s.resolveAssignee(ctx, in.AssignedUser)
	if err != nil {
		return nil, err
	}
	if assignee != nil && in.AssignedUserName != nil && *in.AssignedUserName != "" && *in.AssignedUserName != assignee.Name {
		return nil, assigneeNameMismatch()
	}

	updated := *existing
	updated.Name = in.Name
	updated.Description = in.Description
	updated.Deadline = in.Deadline.UTC().Truncate(time.Millisecond)
	updated.Completed = in.Completed
	if assignee != nil {
		updated.AssignTo(assignee)
	} else {
		updated.Unassign()
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, &updated); err != nil {
		s.log(ctx).Error("failed to update task", "error", err, "task_id", id)
		return nil, wrapError("task", "replace", err)
	}

	taskID := id.String()
	if existing.IsPending() && (!updated.IsPending() || existing.AssignedUser != updated.AssignedUser) {
		if err := s.removeFromAssignee(ctx, existing.AssignedUser, taskID); err != nil {
			return nil, wrapError("task", "replace", err)
		}
	}
	if updated.IsPending() {
		if err := s.users.AddPendingTask(ctx, assignee.ID, taskID); err != nil {
			s.log(ctx).Error("failed to add task to assignee",
				"error", err,
				"task_id", id,
				"user_id", assignee.ID)
			return nil, wrapError("task", "replace", err)
		}
	}

	s.log(ctx).Info("task replaced",
		"task_id", id,
		"previous_assignee", existing.AssignedUser,
		"assigned_user", updated.AssignedUser,
		"completed", updated.Completed)
	return &updated, nil
}

// Delete implements TaskService.Delete
func (s *TaskServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return wrapError("task", "delete", err)
	}

	if task.IsAssigned() {
		if err := s.removeFromAssignee(ctx, task.AssignedUser, id.String()); err != nil {
			return wrapError("task", "delete", err)
		}
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		s.log(ctx).Error("failed to delete task", "error", err, "task_id", id)
		return wrapError("task", "delete", err)
	}

	s.log(ctx).Info("task deleted", "task_id", id)
	return nil
}

// resolveAssignee loads the user named by raw. A nil or empty raw yields a
// nil user.
func (s *TaskServiceImpl) resolveAssignee(ctx context.Context, raw *string) (*domain.User, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	userID, err := domain.ParseID(*raw)
	if err != nil {
		return nil, assigneeNotFound()
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, assigneeNotFound()
	}
	if err != nil {
		return nil, wrapError("task", "resolve_assignee", err)
	}
	return user, nil
}

// removeFromAssignee drops taskID from the pendingTasks of the user with the
// given id. A user that no longer exists is not an error.
func (s *TaskServiceImpl) removeFromAssignee(ctx context.Context, assignedUser, taskID string) error {
	userID, err := domain.ParseID(assignedUser)
	if err != nil {
		s.log(ctx).Warn("task references malformed assignee", "task_id", taskID, "assigned_user", assignedUser)
		return nil
	}
	err = s.users.RemovePendingTask(ctx, userID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		s.log(ctx).Warn("task references missing assignee", "task_id", taskID, "user_id", userID)
		return nil
	}
	if err != nil {
		s.log(ctx).Error("failed to remove task from assignee",
			"error", err,
			"task_id", taskID,
			"user_id", userID)
	}
	return err
}
