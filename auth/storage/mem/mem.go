package mem

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/njimyasmine/user-management-api/auth/storage"
	"github.com/njimyasmine/user-management-api/auth/users"
)

type Storage struct {
	mu    sync.RWMutex
	users []users.User
	index map[uuid.UUID]int
}

var _ storage.UserStorage = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		index: make(map[uuid.UUID]int),
	}
}

func (s *Storage) CreateUser(_ context.Context, user users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[user.ID]; ok {
		return users.User{}, storage.ErrDuplicateID
	}
	if s.emailOwner(user.Email) != -1 {
		return users.User{}, storage.ErrEmailTaken
	}
	s.index[user.ID] = len(s.users)
	s.users = append(s.users, user)
	return user, nil
}

func (s *Storage) ListUsers(_ context.Context) ([]users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]users.User, len(s.users))
	copy(list, s.users)
	return list, nil
}

func (s *Storage) GetUser(_ context.Context, id uuid.UUID) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return s.users[i], nil
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.emailOwner(email)
	if i == -1 {
		return users.User{}, storage.ErrNotFound
	}
	return s.users[i], nil
}

func (s *Storage) UpdateUser(_ context.Context, id uuid.UUID, patch users.Patch) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	if patch.Email != nil {
		if owner := s.emailOwner(*patch.Email); owner != -1 && owner != i {
			return users.User{}, storage.ErrEmailTaken
		}
	}
	s.users[i] = patch.Apply(s.users[i])
	return s.users[i], nil
}

func (s *Storage) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.users); j++ {
		s.index[s.users[j].ID] = j
	}
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// emailOwner returns the position of the user holding email or -1.
// Callers must hold the lock.
func (s *Storage) emailOwner(email string) int {
	for i := range s.users {
		if s.users[i].Email == email {
			return i
		}
	}
	return -1
}
