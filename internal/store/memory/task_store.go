package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// TaskStore is an in-memory store.TaskStore.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
	order []uuid.UUID
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore returns an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

// Find implements store.TaskStore.Find
func (s *TaskStore) Find(ctx context.Context, q store.Query) ([]*domain.Task, error) {
	if err := q.Validate(store.TaskSchema); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []document
	byID := make(map[string]*domain.Task)
	for _, id := range s.order {
		task := s.tasks[id]
		doc := task.Document()
		if matches(q.Filter, doc) {
			docs = append(docs, doc)
			byID[id.String()] = task
		}
	}
	sortDocuments(docs, q.Sort)

	start, end := window(len(docs), q.Skip, q.Limit)
	out := make([]*domain.Task, 0, end-start)
	for _, doc := range docs[start:end] {
		t := *byID[doc["_id"].(string)]
		out = append(out, &t)
	}
	return out, nil
}

// Count implements store.TaskStore.Count
func (s *TaskStore) Count(ctx context.Context, f store.Filter) (int, error) {
	if err := store.ValidateFilter(f, store.TaskSchema); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, task := range s.tasks {
		if matches(f, task.Document()) {
			n++
		}
	}
	return n, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	t := *task
	return &t, nil
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return store.NewStoreError("task", "create", "duplicate id", store.ErrDuplicate)
	}
	t := *task
	s.tasks[task.ID] = &t
	s.order = append(s.order, task.ID)
	return nil
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	t := *task
	t.DateCreated = existing.DateCreated
	s.tasks[task.ID] = &t
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetAssignment implements store.TaskStore.SetAssignment
func (s *TaskStore) SetAssignment(ctx context.Context, id uuid.UUID, assignedUser, assignedUserName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.AssignedUser = assignedUser
	task.AssignedUserName = assignedUserName
	return nil
}

// UpdateAssigneeName implements store.TaskStore.UpdateAssigneeName
func (s *TaskStore) UpdateAssigneeName(ctx context.Context, userID string, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, task := range s.tasks {
		if task.AssignedUser == userID && userID != "" {
			task.AssignedUserName = name
			n++
		}
	}
	return n, nil
}

// UnassignAll implements store.TaskStore.UnassignAll
func (s *TaskStore) UnassignAll(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, task := range s.tasks {
		if task.AssignedUser == userID && userID != "" {
			task.Unassign()
			n++
		}
	}
	return n, nil
}
