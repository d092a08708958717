package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	calls                          int
	err                            error
	unassigned, renamed, rewritten int
}

func (o *recordingObserver) ObserveReconcile(err error, unassigned, renamed, rewritten int) {
	o.calls++
	o.err = err
	o.unassigned, o.renamed, o.rewritten = unassigned, renamed, rewritten
}

func TestReconcilerRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ada, bob := f.user(t, "ada"), f.user(t, "bob")

	kept := f.task(t, "kept", ada, false)
	forgotten := f.task(t, "forgotten", ada, false)
	orphan := f.task(t, "orphan", bob, false)
	stale := f.task(t, "stale", ada, true)
	loose := f.task(t, "loose", nil, false)

	// Drift the stores directly, bypassing the services.
	require.NoError(t, f.users.RemovePendingTask(f.ctx, ada.ID, forgotten.ID.String()))
	require.NoError(t, f.users.AddPendingTask(f.ctx, ada.ID, stale.ID.String()))
	require.NoError(t, f.users.AddPendingTask(f.ctx, ada.ID, uuid.NewString()))
	require.NoError(t, f.tasks.SetAssignment(f.ctx, stale.ID, ada.ID.String(), "old name"))
	require.NoError(t, f.tasks.SetAssignment(f.ctx, loose.ID, "", "somebody"))
	require.NoError(t, f.users.Delete(f.ctx, bob.ID))

	observer := &recordingObserver{}
	reconciler := NewReconciler(f.users, f.tasks, observer, f.logger)

	report, err := reconciler.Run(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{TasksUnassigned: 1, TasksRenamed: 2, UsersRewritten: 1}, report)
	assert.Equal(t, 4, report.Total())
	assert.Equal(t, 1, observer.calls)
	assert.NoError(t, observer.err)
	assert.Equal(t, 1, observer.unassigned)
	assert.Equal(t, 2, observer.renamed)
	assert.Equal(t, 1, observer.rewritten)

	assert.Equal(t, []string{kept.ID.String(), forgotten.ID.String()}, f.reloadUser(t, ada.ID).PendingTasks)
	assert.False(t, f.reloadTask(t, orphan.ID).IsAssigned())
	assert.Equal(t, "ada", f.reloadTask(t, stale.ID).AssignedUserName)
	assert.Equal(t, domain.UnassignedUserName, f.reloadTask(t, loose.ID).AssignedUserName)
	f.assertConsistent(t)

	second, err := reconciler.Run(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Total(), "a consistent store needs no fixes")
}

// midSweepUserStore runs during once, right after the first Find returns.
type midSweepUserStore struct {
	store.UserStore
	once   sync.Once
	during func()
}

func (s *midSweepUserStore) Find(ctx context.Context, q store.Query) ([]*domain.User, error) {
	users, err := s.UserStore.Find(ctx, q)
	s.once.Do(s.during)
	return users, err
}

func TestReconcilerKeepsConcurrentUserReplace(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada")
	kept := f.task(t, "kept", ada, false)
	forgotten := f.task(t, "forgotten", ada, false)
	stale := f.task(t, "stale", ada, true)

	require.NoError(t, f.users.RemovePendingTask(f.ctx, ada.ID, forgotten.ID.String()))
	require.NoError(t, f.tasks.SetAssignment(f.ctx, stale.ID, ada.ID.String(), "old name"))

	users := &midSweepUserStore{
		UserStore: f.users,
		during: func() {
			renamed := f.reloadUser(t, ada.ID)
			renamed.Name = "ada2"
			renamed.Email = "ada2@example.com"
			require.NoError(t, f.users.Update(f.ctx, renamed))
		},
	}
	reconciler := NewReconciler(users, f.tasks, nil, f.logger)

	report, err := reconciler.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.UsersRewritten)

	got := f.reloadUser(t, ada.ID)
	assert.Equal(t, "ada2", got.Name)
	assert.Equal(t, "ada2@example.com", got.Email)
	assert.Equal(t, []string{kept.ID.String(), forgotten.ID.String()}, got.PendingTasks)
	assert.Equal(t, "ada2", f.reloadTask(t, stale.ID).AssignedUserName)
}

type failingUserStore struct {
	store.UserStore
}

func (failingUserStore) Find(context.Context, store.Query) ([]*domain.User, error) {
	return nil, errors.New("connection reset")
}

func TestReconcilerReportsFailure(t *testing.T) {
	f := newFixture(t)
	observer := &recordingObserver{}
	reconciler := NewReconciler(failingUserStore{f.users}, f.tasks, observer, f.logger)

	_, err := reconciler.Run(f.ctx)

	require.Error(t, err)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "list_users", serviceErr.Op)
	assert.Equal(t, 1, observer.calls)
	assert.Error(t, observer.err)
	assert.Contains(t, f.logBuffer.String(), "reconcile sweep failed")
}

func TestRebuildPending(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		owned   []string
		want    []string
	}{
		{"empty", nil, nil, []string{}},
		{"already correct", []string{"a", "b"}, []string{"a", "b"}, []string{"a", "b"}},
		{"keeps listed order", []string{"b", "a"}, []string{"a", "b"}, []string{"b", "a"}},
		{"drops stale", []string{"x", "a"}, []string{"a"}, []string{"a"}},
		{"appends missing in creation order", []string{"b"}, []string{"a", "b", "c"}, []string{"b", "a", "c"}},
		{"collapses duplicates", []string{"a", "a"}, []string{"a"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rebuildPending(tt.current, tt.owned))
		})
	}
}
