package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// ReconcileReport counts the corrections made by one sweep.
type ReconcileReport struct {
	// TasksUnassigned counts tasks whose assignee no longer exists.
	TasksUnassigned int
	// TasksRenamed counts tasks whose assignedUserName was stale.
	TasksRenamed int
	// UsersRewritten counts users whose pendingTasks list was rebuilt.
	UsersRewritten int
}

// Total returns the number of records changed.
func (r ReconcileReport) Total() int {
	return r.TasksUnassigned + r.TasksRenamed + r.UsersRewritten
}

// ReconcileObserver receives the outcome of every sweep.
type ReconcileObserver interface {
	ObserveReconcile(err error, unassigned, renamed, rewritten int)
}

// Reconciler repairs drift between task assignments and user pendingTasks.
type Reconciler struct {
	users    store.UserStore
	tasks    store.TaskStore
	observer ReconcileObserver
	logger   *slog.Logger
}

// NewReconciler creates a Reconciler. observer may be nil.
func NewReconciler(
	users store.UserStore,
	tasks store.TaskStore,
	observer ReconcileObserver,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		users:    users,
		tasks:    tasks,
		observer: observer,
		logger:   logger.With("component", "reconciler"),
	}
}

// Run performs one sweep over every user and task.
//
// Tasks pointing at a missing user are unassigned and stale assignee names
// are corrected. Then each user's pendingTasks is rebuilt from the tasks
// assigned to it that are not completed: ids already listed keep their
// position and the rest follow in task creation order.
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	report, err := r.run(ctx)
	if r.observer != nil {
		r.observer.ObserveReconcile(err, report.TasksUnassigned, report.TasksRenamed, report.UsersRewritten)
	}

	log := logger.FromContextOrDefault(ctx, r.logger)
	if err != nil {
		log.Error("reconcile sweep failed",
			"error", err,
			"tasks_unassigned", report.TasksUnassigned,
			"tasks_renamed", report.TasksRenamed,
			"users_rewritten", report.UsersRewritten)
		return report, err
	}
	log.Info("reconcile sweep finished",
		"tasks_unassigned", report.TasksUnassigned,
		"tasks_renamed", report.TasksRenamed,
		"users_rewritten", report.UsersRewritten)
	return report, nil
}

func (r *Reconciler) run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	users, err := r.users.Find(ctx, store.Query{})
	if err != nil {
		return report, wrapError("reconcile", "list_users", err)
	}
	tasks, err := r.tasks.Find(ctx, store.Query{})
	if err != nil {
		return report, wrapError("reconcile", "list_tasks", err)
	}

	byID := make(map[string]*domain.User, len(users))
	for _, user := range users {
		byID[user.ID.String()] = user
	}

	// owned collects, per user id, the pending tasks in creation order.
	owned := make(map[string][]string)
	for _, task := range tasks {
		switch owner, ok := byID[task.AssignedUser]; {
		case !task.IsAssigned():
			if task.AssignedUserName != domain.UnassignedUserName {
				if err := r.tasks.SetAssignment(ctx, task.ID, "", domain.UnassignedUserName); err != nil {
					return report, wrapError("reconcile", "rename_task", err)
				}
				report.TasksRenamed++
			}
		case !ok:
			if err := r.tasks.SetAssignment(ctx, task.ID, "", domain.UnassignedUserName); err != nil {
				return report, wrapError("reconcile", "unassign_task", err)
			}
			report.TasksUnassigned++
		default:
			if task.AssignedUserName != owner.Name {
				// The listing may predate a rename, so compare against the stored user.
				current, err := r.users.GetByID(ctx, owner.ID)
				switch {
				case errors.Is(err, store.ErrNotFound):
					if err := r.tasks.SetAssignment(ctx, task.ID, "", domain.UnassignedUserName); err != nil {
						return report, wrapError("reconcile", "unassign_task", err)
					}
					report.TasksUnassigned++
					continue
				case err != nil:
					return report, wrapError("reconcile", "load_user", err)
				case task.AssignedUserName != current.Name:
					if err := r.tasks.SetAssignment(ctx, task.ID, task.AssignedUser, current.Name); err != nil {
						return report, wrapError("reconcile", "rename_task", err)
					}
					report.TasksRenamed++
				}
			}
			if !task.Completed {
				owned[task.AssignedUser] = append(owned[task.AssignedUser], task.ID.String())
			}
		}
	}

	for _, user := range users {
		want := rebuildPending(user.PendingTasks, owned[user.ID.String()])
		if slices.Equal(want, user.PendingTasks) {
			continue
		}
		current, err := r.users.GetByID(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return report, wrapError("reconcile", "load_user", err)
		}
		want = rebuildPending(current.PendingTasks, owned[user.ID.String()])
		if slices.Equal(want, current.PendingTasks) {
			continue
		}
		if err := r.users.SetPendingTasks(ctx, user.ID, want); err != nil {
			return report, wrapError("reconcile", "rewrite_user", err)
		}
		report.UsersRewritten++
	}
	return report, nil
}

// rebuildPending returns the ids of owned ordered by their position in
// current, followed by the ids current lacks in the order owned lists them.
func rebuildPending(current, owned []string) []string {
	want := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		want[id] = struct{}{}
	}

	out := make([]string, 0, len(owned))
	placed := make(map[string]struct{}, len(owned))
	for _, id := range current {
		if _, ok := want[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range owned {
		if _, ok := placed[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
