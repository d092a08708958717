package sqlite

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/store/sqlfilter"
)

// TaskStore implements store.TaskStore on SQLite.
type TaskStore struct {
	db      *gorm.DB
	logger  *slog.Logger
	filters *sqlfilter.Compiler
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore uses the shared db. Caller must not close the db while the store is in use.
func NewTaskStore(db *gorm.DB, log *slog.Logger) *TaskStore {
	if log == nil {
		log = slog.Default()
	}
	return &TaskStore{
		db:      db,
		logger:  log.With(slog.String("component", "task_store")),
		filters: sqlfilter.New(sqlfilter.SQLite{}, store.TaskSchema, taskColumns),
	}
}

// Find implements store.TaskStore.Find
func (s *TaskStore) Find(ctx context.Context, q store.Query) ([]*domain.Task, error) {
	if q.Limit != nil && *q.Limit == 0 {
		if err := q.Validate(store.TaskSchema); err != nil {
			return nil, err
		}
		return []*domain.Task{}, nil
	}

	tx, err := applyQuery(s.db.WithContext(ctx).Model(&taskRow{}), s.filters, q)
	if err != nil {
		return nil, err
	}
	var rows []taskRow
	if err := tx.Find(&rows).Error; err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err, store.ErrTaskNotFound)
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for i := range rows {
		task, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Count implements store.TaskStore.Count
func (s *TaskStore) Count(ctx context.Context, f store.Filter) (int, error) {
	return count(s.db.WithContext(ctx).Model(&taskRow{}), s.filters, f)
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var row taskRow
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&row).Error; err != nil {
		return nil, MapError(err, store.ErrTaskNotFound)
	}
	return row.toDomain()
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(newTaskRow(task)).Error; err != nil {
		return MapError(err, store.ErrTaskNotFound)
	}
	return nil
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	row := newTaskRow(task)
	result := s.db.WithContext(ctx).Model(&taskRow{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"name":               row.Name,
			"description":        row.Description,
			"deadline":           row.Deadline,
			"completed":          row.Completed,
			"assigned_user":      row.AssignedUser,
			"assigned_user_name": row.AssignedUserName,
		})
	if result.Error != nil {
		return MapError(result.Error, store.ErrTaskNotFound)
	}
	if result.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&taskRow{})
	if result.Error != nil {
		return MapError(result.Error, store.ErrTaskNotFound)
	}
	if result.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// SetAssignment implements store.TaskStore.SetAssignment
func (s *TaskStore) SetAssignment(ctx context.Context, id uuid.UUID, assignedUser, assignedUserName string) error {
	result := s.db.WithContext(ctx).Model(&taskRow{}).
		Where("id = ?", id.String()).
		Updates(map[string]any{
			"assigned_user":      assignedUser,
			"assigned_user_name": assignedUserName,
		})
	if result.Error != nil {
		return MapError(result.Error, store.ErrTaskNotFound)
	}
	if result.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// UpdateAssigneeName implements store.TaskStore.UpdateAssigneeName
func (s *TaskStore) UpdateAssigneeName(ctx context.Context, userID string, name string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Model(&taskRow{}).
		Where("assigned_user = ?", userID).
		Update("assigned_user_name", name)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// UnassignAll implements store.TaskStore.UnassignAll
func (s *TaskStore) UnassignAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Model(&taskRow{}).
		Where("assigned_user = ?", userID).
		Updates(map[string]any{
			"assigned_user":      "",
			"assigned_user_name": domain.UnassignedUserName,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}
