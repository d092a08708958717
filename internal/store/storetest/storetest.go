// Package storetest holds a behavioural suite every store.UserStore and
// store.TaskStore implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Factory returns empty stores for one subtest.
type Factory func(t *testing.T) (store.UserStore, store.TaskStore)

// Run executes the suite against stores produced by newStores.
func Run(t *testing.T, newStores Factory) {
	t.Run("UserCRUD", func(t *testing.T) { testUserCRUD(t, newStores) })
	t.Run("UserPendingTasks", func(t *testing.T) { testUserPendingTasks(t, newStores) })
	t.Run("TaskQueries", func(t *testing.T) { testTaskQueries(t, newStores) })
	t.Run("TaskAssignments", func(t *testing.T) { testTaskAssignments(t, newStores) })
}

func newUser(t *testing.T, name, email string, pending ...string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(name, email, pending)
	require.NoError(t, err)
	return u
}

func newTask(t *testing.T, name string, deadline time.Time, completed bool) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(name, "about "+name, deadline, completed)
	require.NoError(t, err)
	return task
}

func testUserCRUD(t *testing.T, newStores Factory) {
	ctx := context.Background()
	users, _ := newStores(t)

	ada := newUser(t, "Ada", "ada@example.com")
	require.NoError(t, users.Create(ctx, ada))

	got, err := users.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada.Name, got.Name)
	assert.Equal(t, ada.Email, got.Email)
	assert.NotNil(t, got.PendingTasks)
	assert.True(t, ada.DateCreated.Equal(got.DateCreated))

	err = users.Create(ctx, newUser(t, "Other", "ada@example.com"))
	assert.ErrorIs(t, err, store.ErrEmailExists)

	bob := newUser(t, "Bob", "bob@example.com")
	require.NoError(t, users.Create(ctx, bob))
	bob.Email = ada.Email
	assert.ErrorIs(t, users.Update(ctx, bob), store.ErrEmailExists)

	renamed := *ada
	renamed.Name = "Ada Lovelace"
	renamed.DateCreated = time.Now().Add(time.Hour)
	require.NoError(t, users.Update(ctx, &renamed))
	got, err = users.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.True(t, ada.DateCreated.Equal(got.DateCreated), "dateCreated must not change")

	missing := newUser(t, "Ghost", "ghost@example.com")
	assert.ErrorIs(t, users.Update(ctx, missing), store.ErrUserNotFound)
	_, err = users.GetByID(ctx, missing.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	n, err := users.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, users.Delete(ctx, ada.ID))
	assert.ErrorIs(t, users.Delete(ctx, ada.ID), store.ErrUserNotFound)
}

func testUserPendingTasks(t *testing.T, newStores Factory) {
	ctx := context.Background()
	users, _ := newStores(t)
	taskID := uuid.NewString()
	otherTask := uuid.NewString()

	a := newUser(t, "A", "a@example.com")
	b := newUser(t, "B", "b@example.com", taskID, otherTask)
	c := newUser(t, "C", "c@example.com", taskID)
	for _, u := range []*domain.User{a, b, c} {
		require.NoError(t, users.Create(ctx, u))
	}

	holders, err := users.Find(ctx, store.Query{Filter: store.Eq("pendingTasks", store.FieldStringList, taskID)})
	require.NoError(t, err)
	assert.Len(t, holders, 2)

	require.NoError(t, users.AddPendingTask(ctx, a.ID, taskID))
	require.NoError(t, users.AddPendingTask(ctx, a.ID, taskID))
	require.NoError(t, users.ReleaseTask(ctx, taskID, a.ID))

	got, err := users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{taskID}, got.PendingTasks)

	got, err = users.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{otherTask}, got.PendingTasks)

	got, err = users.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PendingTasks)

	require.NoError(t, users.RemovePendingTask(ctx, a.ID, taskID))
	got, err = users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PendingTasks)

	assert.ErrorIs(t, users.AddPendingTask(ctx, uuid.New(), taskID), store.ErrUserNotFound)
	assert.ErrorIs(t, users.RemovePendingTask(ctx, uuid.New(), taskID), store.ErrUserNotFound)

	require.NoError(t, users.SetPendingTasks(ctx, b.ID, []string{taskID, otherTask}))
	got, err = users.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{taskID, otherTask}, got.PendingTasks)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, b.Email, got.Email)
	assert.True(t, b.DateCreated.Equal(got.DateCreated))

	require.NoError(t, users.SetPendingTasks(ctx, b.ID, nil))
	got, err = users.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PendingTasks)

	assert.ErrorIs(t, users.SetPendingTasks(ctx, uuid.New(), nil), store.ErrUserNotFound)
}

func testTaskQueries(t *testing.T, newStores Factory) {
	ctx := context.Background()
	_, tasks := newStores(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	late := newTask(t, "late", base.Add(72*time.Hour), false)
	early := newTask(t, "early", base, true)
	mid := newTask(t, "mid", base.Add(24*time.Hour), false)
	for _, task := range []*domain.Task{late, early, mid} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	one, two := 1, 2
	tests := []struct {
		name  string
		query store.Query
		want  []string
	}{
		{name: "creation order", query: store.Query{}, want: []string{"late", "early", "mid"}},
		{name: "sort by deadline", query: store.Query{Sort: []store.SortField{{Field: "deadline"}}}, want: []string{"early", "mid", "late"}},
		{
			name:  "sort desc with window",
			query: store.Query{Sort: []store.SortField{{Field: "deadline", Desc: true}}, Skip: 1, Limit: &one},
			want:  []string{"mid"},
		},
		{name: "skip only", query: store.Query{Skip: 2}, want: []string{"mid"}},
		{name: "limit only", query: store.Query{Limit: &two}, want: []string{"late", "early"}},
		{name: "completed false", query: store.Query{Filter: store.Eq("completed", store.FieldBool, false)}, want: []string{"late", "mid"}},
		{
			name: "deadline range",
			query: store.Query{Filter: store.And{
				store.Condition{Field: "deadline", Type: store.FieldTime, Op: store.OpGt, Value: base},
				store.Condition{Field: "deadline", Type: store.FieldTime, Op: store.OpLte, Value: base.Add(24 * time.Hour)},
			}},
			want: []string{"mid"},
		},
		{
			name: "id in",
			query: store.Query{Filter: store.Condition{
				Field: "_id", Type: store.FieldID, Op: store.OpIn, Values: []any{early.ID.String(), mid.ID.String()},
			}},
			want: []string{"early", "mid"},
		},
		{
			name: "or with ne",
			query: store.Query{Filter: store.Or{
				store.Eq("name", store.FieldString, "late"),
				store.Condition{Field: "completed", Type: store.FieldBool, Op: store.OpNe, Value: false},
			}},
			want: []string{"late", "early"},
		},
		{name: "unassigned", query: store.Query{Filter: store.Eq("assignedUser", store.FieldString, "")}, want: []string{"late", "early", "mid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tasks.Find(ctx, tt.query)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, task := range got {
				names = append(names, task.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	zero := 0
	got, err := tasks.Find(ctx, store.Query{Limit: &zero})
	require.NoError(t, err)
	assert.Empty(t, got)

	stored, err := tasks.GetByID(ctx, early.ID)
	require.NoError(t, err)
	assert.True(t, early.Deadline.Equal(stored.Deadline))
	assert.Equal(t, "about early", stored.Description)
	assert.True(t, stored.Completed)

	n, err := tasks.Count(ctx, store.Eq("completed", store.FieldBool, false))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = tasks.Find(ctx, store.Query{Filter: store.Eq("priority", store.FieldString, "high")})
	assert.ErrorIs(t, err, store.ErrInvalidQuery)
}

func testTaskAssignments(t *testing.T, newStores Factory) {
	ctx := context.Background()
	_, tasks := newStores(t)
	userID := uuid.NewString()

	one := newTask(t, "one", time.Now(), false)
	two := newTask(t, "two", time.Now(), true)
	other := newTask(t, "other", time.Now(), false)
	for _, task := range []*domain.Task{one, two, other} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	require.NoError(t, tasks.SetAssignment(ctx, one.ID, userID, "Ada"))
	require.NoError(t, tasks.SetAssignment(ctx, two.ID, userID, "Ada"))
	assert.ErrorIs(t, tasks.SetAssignment(ctx, uuid.New(), userID, "Ada"), store.ErrTaskNotFound)

	n, err := tasks.UpdateAssigneeName(ctx, userID, "Ada L.")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := tasks.GetByID(ctx, one.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, got.AssignedUser)
	assert.Equal(t, "Ada L.", got.AssignedUserName)

	got.Completed = true
	got.Name = "one, done"
	require.NoError(t, tasks.Update(ctx, got))
	got, err = tasks.GetByID(ctx, one.ID)
	require.NoError(t, err)
	assert.Equal(t, "one, done", got.Name)
	assert.True(t, got.Completed)
	assert.True(t, one.DateCreated.Equal(got.DateCreated))

	n, err = tasks.UnassignAll(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err = tasks.GetByID(ctx, two.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.AssignedUser)
	assert.Equal(t, domain.UnassignedUserName, got.AssignedUserName)

	require.NoError(t, tasks.Delete(ctx, other.ID))
	_, err = tasks.GetByID(ctx, other.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.ErrorIs(t, tasks.Delete(ctx, other.ID), store.ErrTaskNotFound)
}
