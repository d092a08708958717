package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/store/sqlfilter"
)

const userSelectColumns = "id, name, email, pending_tasks, date_created"

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db      store.DBTX
	logger  *slog.Logger
	filters *sqlfilter.Compiler
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:      db,
		logger:  logger.With(slog.String("component", "user_store")),
		filters: sqlfilter.New(sqlfilter.Postgres{}, store.UserSchema, userColumns),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one users row selected with userSelectColumns.
func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user    domain.User
		id      string
		pending []string
	)
	m := pgtype.NewMap()
	if err := row.Scan(&id, &user.Name, &user.Email, m.SQLScanner(&pending), &user.DateCreated); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", id, err)
	}
	user.ID = parsed
	user.PendingTasks = pending
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}
	user.DateCreated = user.DateCreated.UTC()
	return &user, nil
}

// Find implements store.UserStore.Find
func (s *PostgresUserStore) Find(ctx context.Context, q store.Query) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := selectSQL(userSelectColumns, "users", s.filters, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query users", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Error("failed to scan user row", slog.String("error", err.Error()))
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

// Count implements store.UserStore.Count
func (s *PostgresUserStore) Count(ctx context.Context, f store.Filter) (int, error) {
	where, args, err := s.filters.Where(f, 0)
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// GetByID implements store.UserStore.GetByID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving user by ID", slog.String("user_id", id.String()))

	row := s.db.QueryRowContext(ctx,
		"SELECT "+userSelectColumns+" FROM users WHERE id = $1", id.String())
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("user_id", id.String()), slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return user, nil
}

// Create implements store.UserStore.Create
// Returns store.ErrEmailExists if the email is already taken.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create", slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO users (id, name, email, pending_tasks, date_created)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID.String(),
		user.Name,
		user.Email,
		pendingTasksArg(user.PendingTasks),
		user.DateCreated,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrEmailExists) {
			log.Debug("email already in use", slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user", slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
		return mapped
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// Update implements store.UserStore.Update
// The date_created column is never rewritten.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during update", slog.String("error", err.Error()))
		return err
	}

	query := `
		UPDATE users
		SET name = $2, email = $3, pending_tasks = $4
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		user.ID.String(),
		user.Name,
		user.Email,
		pendingTasksArg(user.PendingTasks),
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrEmailExists) {
			return store.ErrEmailExists
		}
		log.Error("failed to update user", slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
		return mapped
	}

	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete implements store.UserStore.Delete
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id.String())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// AddPendingTask implements store.UserStore.AddPendingTask
func (s *PostgresUserStore) AddPendingTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	query := `
		UPDATE users
		SET pending_tasks = CASE
			WHEN $2::text = ANY(pending_tasks) THEN pending_tasks
			ELSE array_append(pending_tasks, $2::text)
		END
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, userID.String(), taskID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// RemovePendingTask implements store.UserStore.RemovePendingTask
func (s *PostgresUserStore) RemovePendingTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	query := `UPDATE users SET pending_tasks = array_remove(pending_tasks, $2::text) WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, userID.String(), taskID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// SetPendingTasks implements store.UserStore.SetPendingTasks
func (s *PostgresUserStore) SetPendingTasks(ctx context.Context, userID uuid.UUID, taskIDs []string) error {
	query := `UPDATE users SET pending_tasks = $2 WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, userID.String(), pendingTasksArg(taskIDs))
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// ReleaseTask implements store.UserStore.ReleaseTask
func (s *PostgresUserStore) ReleaseTask(ctx context.Context, taskID string, keep uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE users
		SET pending_tasks = array_remove(pending_tasks, $1::text)
		WHERE $1::text = ANY(pending_tasks) AND id <> $2
	`
	result, err := s.db.ExecContext(ctx, query, taskID, keep.String())
	if err != nil {
		return MapError(err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Debug("released task from other users",
			slog.String("task_id", taskID),
			slog.Int64("users", n))
	}
	return nil
}

// pendingTasksArg never binds NULL into the NOT NULL column.
func pendingTasksArg(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
