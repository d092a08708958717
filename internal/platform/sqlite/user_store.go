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

// UserStore implements store.UserStore on SQLite.
type UserStore struct {
	db      *gorm.DB
	logger  *slog.Logger
	filters *sqlfilter.Compiler
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// NewUserStore uses the shared db. Caller must not close the db while the store is in use.
func NewUserStore(db *gorm.DB, log *slog.Logger) *UserStore {
	if log == nil {
		log = slog.Default()
	}
	return &UserStore{
		db:      db,
		logger:  log.With(slog.String("component", "user_store")),
		filters: sqlfilter.New(sqlfilter.SQLite{}, store.UserSchema, userColumns),
	}
}

func (s *UserStore) scoped(ctx context.Context, q store.Query) (*gorm.DB, error) {
	return applyQuery(s.db.WithContext(ctx).Model(&userRow{}), s.filters, q)
}

// Find implements store.UserStore.Find
func (s *UserStore) Find(ctx context.Context, q store.Query) ([]*domain.User, error) {
	if q.Limit != nil && *q.Limit == 0 {
		if err := q.Validate(store.UserSchema); err != nil {
			return nil, err
		}
		return []*domain.User{}, nil
	}

	tx, err := s.scoped(ctx, q)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := tx.Find(&rows).Error; err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query users", slog.String("error", err.Error()))
		return nil, MapError(err, store.ErrUserNotFound)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		user, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Count implements store.UserStore.Count
func (s *UserStore) Count(ctx context.Context, f store.Filter) (int, error) {
	return count(s.db.WithContext(ctx).Model(&userRow{}), s.filters, f)
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row, err := s.getRow(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *UserStore) getRow(tx *gorm.DB, id uuid.UUID) (*userRow, error) {
	var row userRow
	if err := tx.Where("id = ?", id.String()).Take(&row).Error; err != nil {
		return nil, MapError(err, store.ErrUserNotFound)
	}
	return &row, nil
}

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	row, err := newUserRow(user)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return MapError(err, store.ErrUserNotFound)
	}
	return nil
}

// Update implements store.UserStore.Update
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	pending, err := encodeIDs(user.PendingTasks)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", user.ID.String()).
		Updates(map[string]any{
			"name":          user.Name,
			"email":         user.Email,
			"pending_tasks": pending,
		})
	if result.Error != nil {
		return MapError(result.Error, store.ErrUserNotFound)
	}
	if result.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// Delete implements store.UserStore.Delete
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&userRow{})
	if result.Error != nil {
		return MapError(result.Error, store.ErrUserNotFound)
	}
	if result.RowsAffected == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// AddPendingTask implements store.UserStore.AddPendingTask
func (s *UserStore) AddPendingTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	return s.editPending(ctx, userID, func(u *domain.User) bool { return u.AddPendingTask(taskID) })
}

// RemovePendingTask implements store.UserStore.RemovePendingTask
func (s *UserStore) RemovePendingTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	return s.editPending(ctx, userID, func(u *domain.User) bool { return u.RemovePendingTask(taskID) })
}

// SetPendingTasks implements store.UserStore.SetPendingTasks
func (s *UserStore) SetPendingTasks(ctx context.Context, userID uuid.UUID, taskIDs []string) error {
	return s.editPending(ctx, userID, func(u *domain.User) bool {
		u.PendingTasks = append([]string{}, taskIDs...)
		return true
	})
}

// editPending applies edit to one user's pendingTasks inside a transaction.
func (s *UserStore) editPending(ctx context.Context, userID uuid.UUID, edit func(*domain.User) bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.getRow(tx, userID)
		if err != nil {
			return err
		}
		user, err := row.toDomain()
		if err != nil {
			return err
		}
		if !edit(user) {
			return nil
		}
		return savePending(tx, row.ID, user.PendingTasks)
	})
}

// ReleaseTask implements store.UserStore.ReleaseTask
func (s *UserStore) ReleaseTask(ctx context.Context, taskID string, keep uuid.UUID) error {
	holds, _, err := s.filters.Where(store.Eq("pendingTasks", store.FieldStringList, taskID), 0)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []userRow
		err := tx.Where(holds, taskID).
			Where("id <> ?", keep.String()).
			Find(&rows).Error
		if err != nil {
			return MapError(err, store.ErrUserNotFound)
		}
		for i := range rows {
			user, err := rows[i].toDomain()
			if err != nil {
				return err
			}
			user.RemovePendingTask(taskID)
			if err := savePending(tx, rows[i].ID, user.PendingTasks); err != nil {
				return err
			}
		}
		return nil
	})
}

func savePending(tx *gorm.DB, id string, pending []string) error {
	encoded, err := encodeIDs(pending)
	if err != nil {
		return err
	}
	err = tx.Model(&userRow{}).Where("id = ?", id).Update("pending_tasks", encoded).Error
	return MapError(err, store.ErrUserNotFound)
}
