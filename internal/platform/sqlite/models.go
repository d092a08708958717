package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store/sqlfilter"
)

type userRow struct {
	Seq          int64  `gorm:"column:seq;primaryKey;autoIncrement"`
	ID           string `gorm:"column:id;uniqueIndex;not null"`
	Name         string `gorm:"column:name;not null"`
	Email        string `gorm:"column:email;uniqueIndex:idx_users_email;not null"`
	PendingTasks string `gorm:"column:pending_tasks;not null;default:'[]'"`
	DateCreated  int64  `gorm:"column:date_created;not null"`
}

func (userRow) TableName() string { return "users" }

type taskRow struct {
	Seq              int64  `gorm:"column:seq;primaryKey;autoIncrement"`
	ID               string `gorm:"column:id;uniqueIndex;not null"`
	Name             string `gorm:"column:name;not null"`
	Description      string `gorm:"column:description;not null;default:''"`
	Deadline         int64  `gorm:"column:deadline;not null"`
	Completed        bool   `gorm:"column:completed;not null;default:false"`
	AssignedUser     string `gorm:"column:assigned_user;index;not null;default:''"`
	AssignedUserName string `gorm:"column:assigned_user_name;not null;default:'unassigned'"`
	DateCreated      int64  `gorm:"column:date_created;not null"`
}

func (taskRow) TableName() string { return "tasks" }

var userColumns = sqlfilter.Columns{
	"_id":          "id",
	"name":         "name",
	"email":        "email",
	"pendingTasks": "pending_tasks",
	"dateCreated":  "date_created",
}

var taskColumns = sqlfilter.Columns{
	"_id":              "id",
	"name":             "name",
	"description":      "description",
	"deadline":         "deadline",
	"completed":        "completed",
	"assignedUser":     "assigned_user",
	"assignedUserName": "assigned_user_name",
	"dateCreated":      "date_created",
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeIDs(raw string) ([]string, error) {
	ids := []string{}
	if raw == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("corrupt pending_tasks %q: %w", raw, err)
	}
	return ids, nil
}

func newUserRow(u *domain.User) (*userRow, error) {
	pending, err := encodeIDs(u.PendingTasks)
	if err != nil {
		return nil, err
	}
	return &userRow{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PendingTasks: pending,
		DateCreated:  u.DateCreated.UnixMilli(),
	}, nil
}

func (r *userRow) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", r.ID, err)
	}
	pending, err := decodeIDs(r.PendingTasks)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           id,
		Name:         r.Name,
		Email:        r.Email,
		PendingTasks: pending,
		DateCreated:  time.UnixMilli(r.DateCreated).UTC(),
	}, nil
}

func newTaskRow(t *domain.Task) *taskRow {
	return &taskRow{
		ID:               t.ID.String(),
		Name:             t.Name,
		Description:      t.Description,
		Deadline:         t.Deadline.UnixMilli(),
		Completed:        t.Completed,
		AssignedUser:     t.AssignedUser,
		AssignedUserName: t.AssignedUserName,
		DateCreated:      t.DateCreated.UnixMilli(),
	}
}

func (r *taskRow) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt task id %q: %w", r.ID, err)
	}
	return &domain.Task{
		ID:               id,
		Name:             r.Name,
		Description:      r.Description,
		Deadline:         time.UnixMilli(r.Deadline).UTC(),
		Completed:        r.Completed,
		AssignedUser:     r.AssignedUser,
		AssignedUserName: r.AssignedUserName,
		DateCreated:      time.UnixMilli(r.DateCreated).UTC(),
	}, nil
}
