package service

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServiceSequencesStayConsistent drives seeded random sequences of user
// and task writes through the services. Afterwards every user must list
// exactly its assigned incomplete tasks, so a sweep finds nothing to fix.
func TestServiceSequencesStayConsistent(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 2024, 90210} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			f := newFixture(t)
			rng := rand.New(rand.NewPCG(seed, seed))

			var users []*domain.User
			var tasks []*domain.Task
			pickUser := func() *domain.User {
				if len(users) == 0 || rng.IntN(4) == 0 {
					return nil
				}
				return users[rng.IntN(len(users))]
			}
			someTasks := func() []string {
				var ids []string
				for _, task := range tasks {
					if rng.IntN(3) == 0 {
						ids = append(ids, task.ID.String())
					}
				}
				return ids
			}

			for step := 0; step < 200; step++ {
				switch op := rng.IntN(6); {
				case op == 0 || len(users) == 0:
					name := fmt.Sprintf("user-%d", step)
					u, err := f.userSvc.Create(f.ctx, UserInput{
						Name:         name,
						Email:        name + "@example.com",
						PendingTasks: someTasks(),
					})
					require.NoError(t, err, "step %d: create user", step)
					users = append(users, u)

				case op == 1 || len(tasks) == 0:
					in := TaskInput{Name: fmt.Sprintf("task-%d", step), Deadline: testDeadline, Completed: rng.IntN(3) == 0}
					if u := pickUser(); u != nil {
						in.AssignedUser = ptr(u.ID.String())
					}
					task, err := f.taskSvc.Create(f.ctx, in)
					require.NoError(t, err, "step %d: create task", step)
					tasks = append(tasks, task)

				case op == 2:
					i := rng.IntN(len(tasks))
					in := TaskInput{Name: tasks[i].Name, Deadline: testDeadline, Completed: rng.IntN(3) == 0}
					if u := pickUser(); u != nil {
						in.AssignedUser = ptr(u.ID.String())
					}
					replaced, err := f.taskSvc.Replace(f.ctx, tasks[i].ID, in)
					require.NoError(t, err, "step %d: replace task", step)
					tasks[i] = replaced

				case op == 3:
					i := rng.IntN(len(users))
					replaced, err := f.userSvc.Replace(f.ctx, users[i].ID, UserInput{
						Name:         fmt.Sprintf("%s-v%d", users[i].Email, step),
						Email:        users[i].Email,
						PendingTasks: someTasks(),
					})
					require.NoError(t, err, "step %d: replace user", step)
					users[i] = replaced

				case op == 4:
					i := rng.IntN(len(tasks))
					require.NoError(t, f.taskSvc.Delete(f.ctx, tasks[i].ID), "step %d: delete task", step)
					tasks = append(tasks[:i], tasks[i+1:]...)

				default:
					i := rng.IntN(len(users))
					require.NoError(t, f.userSvc.Delete(f.ctx, users[i].ID), "step %d: delete user", step)
					users = append(users[:i], users[i+1:]...)
				}
			}

			f.assertConsistent(t)

			report, err := NewReconciler(f.users, f.tasks, nil, f.logger).Run(f.ctx)
			require.NoError(t, err)
			assert.Zero(t, report.Total(), "sweep found drift: %+v", report)
		})
	}
}
