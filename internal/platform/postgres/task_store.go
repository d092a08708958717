package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/store/sqlfilter"
)

const taskSelectColumns = "id, name, description, deadline, completed, assigned_user, assigned_user_name, date_created"

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db      store.DBTX
	logger  *slog.Logger
	filters *sqlfilter.Compiler
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:      db,
		logger:  logger.With(slog.String("component", "task_store")),
		filters: sqlfilter.New(sqlfilter.Postgres{}, store.TaskSchema, taskColumns),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task domain.Task
		id   string
	)
	err := row.Scan(
		&id,
		&task.Name,
		&task.Description,
		&task.Deadline,
		&task.Completed,
		&task.AssignedUser,
		&task.AssignedUserName,
		&task.DateCreated,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt task id %q: %w", id, err)
	}
	task.ID = parsed
	task.Deadline = task.Deadline.UTC().Truncate(time.Millisecond)
	task.DateCreated = task.DateCreated.UTC().Truncate(time.Millisecond)
	return &task, nil
}

// Find implements store.TaskStore.Find
func (s *PostgresTaskStore) Find(ctx context.Context, q store.Query) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args, err := selectSQL(taskSelectColumns, "tasks", s.filters, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return tasks, nil
}

// Count implements store.TaskStore.Count
func (s *PostgresTaskStore) Count(ctx context.Context, f store.Filter) (int, error) {
	where, args, err := s.filters.Where(f, 0)
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE "+where, args...).Scan(&n); err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskSelectColumns+" FROM tasks WHERE id = $1", id.String())
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task", slog.String("task_id", id.String()), slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return task, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create", slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO tasks (id, name, description, deadline, completed, assigned_user, assigned_user_name, date_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID.String(),
		task.Name,
		task.Description,
		task.Deadline,
		task.Completed,
		task.AssignedUser,
		task.AssignedUserName,
		task.DateCreated,
	)
	if err != nil {
		log.Error("failed to create task", slog.String("task_id", task.ID.String()), slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Info("task created", slog.String("task_id", task.ID.String()))
	return nil
}

// Update implements store.TaskStore.Update
// The date_created column is never rewritten.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update", slog.String("error", err.Error()))
		return err
	}

	query := `
		UPDATE tasks
		SET name = $2, description = $3, deadline = $4, completed = $5,
			assigned_user = $6, assigned_user_name = $7
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		task.ID.String(),
		task.Name,
		task.Description,
		task.Deadline,
		task.Completed,
		task.AssignedUser,
		task.AssignedUserName,
	)
	if err != nil {
		log.Error("failed to update task", slog.String("task_id", task.ID.String()), slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id.String())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// SetAssignment implements store.TaskStore.SetAssignment
func (s *PostgresTaskStore) SetAssignment(ctx context.Context, id uuid.UUID, assignedUser, assignedUserName string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET assigned_user = $2, assigned_user_name = $3 WHERE id = $1",
		id.String(), assignedUser, assignedUserName)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// UpdateAssigneeName implements store.TaskStore.UpdateAssigneeName
func (s *PostgresTaskStore) UpdateAssigneeName(ctx context.Context, userID string, name string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET assigned_user_name = $2 WHERE assigned_user = $1",
		userID, name)
	if err != nil {
		return 0, MapError(err)
	}
	return rowsAffected(result)
}

// UnassignAll implements store.TaskStore.UnassignAll
func (s *PostgresTaskStore) UnassignAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET assigned_user = '', assigned_user_name = $2 WHERE assigned_user = $1",
		userID, domain.UnassignedUserName)
	if err != nil {
		return 0, MapError(err)
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
