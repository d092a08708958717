package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// UserStore is an in-memory store.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
	order []uuid.UUID
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// NewUserStore returns an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*domain.User)}
}

// Find implements store.UserStore.Find
func (s *UserStore) Find(ctx context.Context, q store.Query) ([]*domain.User, error) {
	if err := q.Validate(store.UserSchema); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []document
	byID := make(map[string]*domain.User)
	for _, id := range s.order {
		user := s.users[id]
		doc := user.Document()
		if matches(q.Filter, doc) {
			docs = append(docs, doc)
			byID[id.String()] = user
		}
	}
	sortDocuments(docs, q.Sort)

	start, end := window(len(docs), q.Skip, q.Limit)
	out := make([]*domain.User, 0, end-start)
	for _, doc := range docs[start:end] {
		out = append(out, cloneUser(byID[doc["_id"].(string)]))
	}
	return out, nil
}

// Count implements store.UserStore.Count
func (s *UserStore) Count(ctx context.Context, f store.Filter) (int, error) {
	if err := store.ValidateFilter(f, store.UserSchema); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, user := range s.users {
		if matches(f, user.Document()) {
			n++
		}
	}
	return n, nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return store.NewStoreError("user", "create", "duplicate id", store.ErrDuplicate)
	}
	if s.emailTaken(user.Email, uuid.Nil) {
		return store.ErrEmailExists
	}
	s.users[user.ID] = cloneUser(user)
	s.order = append(s.order, user.ID)
	return nil
}

// Update implements store.UserStore.Update
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	updated := cloneUser(user)
	updated.DateCreated = existing.DateCreated
	s.users[user.ID] = updated
	return nil
}

// Delete implements store.UserStore.Delete
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddPendingTask implements store.UserStore.AddPendingTask
func (s *UserStore) AddPendingTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	user.AddPendingTask(taskID)
	return nil
}

// RemovePendingTask implements store.UserStore.RemovePendingTask
func (s *UserStore) RemovePendingTask(ctx context.Context, userID uuid.UUID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	user.RemovePendingTask(taskID)
	return nil
}

// SetPendingTasks implements store.UserStore.SetPendingTasks
func (s *UserStore) SetPendingTasks(ctx context.Context, userID uuid.UUID, taskIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrUserNotFound
	}
	user.PendingTasks = append([]string{}, taskIDs...)
	return nil
}

// ReleaseTask implements store.UserStore.ReleaseTask
func (s *UserStore) ReleaseTask(ctx context.Context, taskID string, keep uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, user := range s.users {
		if id == keep {
			continue
		}
		user.RemovePendingTask(taskID)
	}
	return nil
}

// emailTaken reports whether another user than except already uses email.
// Callers must hold s.mu.
func (s *UserStore) emailTaken(email string, except uuid.UUID) bool {
	for id, user := range s.users {
		if id != except && user.Email == email {
			return true
		}
	}
	return false
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.PendingTasks = append([]string{}, u.PendingTasks...)
	return &c
}
