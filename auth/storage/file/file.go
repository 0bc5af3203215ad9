// Package file keeps all user records in a single JSON document.
//
// Every mutation reads the whole document, applies the change and writes the
// whole document back through a temporary file that is renamed over the
// original, so readers only ever see a complete snapshot. Mutations are
// serialized with a mutex; reads share a read lock.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/njimyasmine/user-management-api/auth/storage"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/sirupsen/logrus"
)

var ErrCorrupt = errors.New("corrupt user store")

type record struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Storage struct {
	mu   sync.RWMutex
	path string
	log  *logrus.Entry
}

var _ storage.UserStorage = (*Storage)(nil)

func New(l *logrus.Logger, path string) (*Storage, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "file-storage",
		"path": path,
	})
	s := &Storage{
		path: path,
		log:  log,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.save(nil); err != nil {
			return nil, err
		}
		log.Info("user store created")
	case err != nil:
		return nil, err
	}
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	log.WithField("users", len(records)).Info("user store opened")
	return s, nil
}

func (s *Storage) CreateUser(_ context.Context, user users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return users.User{}, err
	}
	for i := range records {
		if records[i].ID == user.ID {
			return users.User{}, storage.ErrDuplicateID
		}
		if records[i].Email == user.Email {
			return users.User{}, storage.ErrEmailTaken
		}
	}
	records = append(records, convertUserToRecord(user))
	if err := s.save(records); err != nil {
		return users.User{}, err
	}
	return user, nil
}

func (s *Storage) ListUsers(_ context.Context) ([]users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	list := make([]users.User, 0, len(records))
	for i := range records {
		list = append(list, convertRecordToUser(records[i]))
	}
	return list, nil
}

func (s *Storage) GetUser(_ context.Context, id uuid.UUID) (users.User, error) {
	return s.find(func(r record) bool { return r.ID == id })
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (users.User, error) {
	return s.find(func(r record) bool { return r.Email == email })
}

func (s *Storage) find(match func(record) bool) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.load()
	if err != nil {
		return users.User{}, err
	}
	for i := range records {
		if match(records[i]) {
			return convertRecordToUser(records[i]), nil
		}
	}
	return users.User{}, storage.ErrNotFound
}

func (s *Storage) UpdateUser(_ context.Context, id uuid.UUID, patch users.Patch) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return users.User{}, err
	}
	idx := -1
	for i := range records {
		if records[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return users.User{}, storage.ErrNotFound
	}
	if patch.Email != nil {
		for i := range records {
			if i != idx && records[i].Email == *patch.Email {
				return users.User{}, storage.ErrEmailTaken
			}
		}
	}
	updated := patch.Apply(convertRecordToUser(records[idx]))
	records[idx] = convertUserToRecord(updated)
	if err := s.save(records); err != nil {
		return users.User{}, err
	}
	return updated, nil
}

func (s *Storage) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			records = append(records[:i], records[i+1:]...)
			return s.save(records)
		}
	}
	return storage.ErrNotFound
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) load() ([]record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read user store: %w", err)
	}
	var records []record
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := checkUnique(records); err != nil {
		return nil, err
	}
	return records, nil
}

func checkUnique(records []record) error {
	ids := mapset.NewThreadUnsafeSet[uuid.UUID]()
	emails := mapset.NewThreadUnsafeSet[string]()
	for i := range records {
		if !ids.Add(records[i].ID) {
			return fmt.Errorf("%w: duplicate id %s", ErrCorrupt, records[i].ID)
		}
		if !emails.Add(records[i].Email) {
			return fmt.Errorf("%w: duplicate email %s", ErrCorrupt, records[i].Email)
		}
	}
	return nil
}

// save replaces the store file with records. The data goes to a temp file in
// the same directory first, so the rename is atomic.
func (s *Storage) save(records []record) error {
	if records == nil {
		records = []record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write user store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		return errors.Join(fmt.Errorf("write user store: %w", err), tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Sync(); err != nil {
		return errors.Join(fmt.Errorf("write user store: %w", err), tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("write user store: %w", err), os.Remove(tmpName))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Join(fmt.Errorf("write user store: %w", err), os.Remove(tmpName))
	}
	s.log.WithField("users", len(records)).Debug("user store written")
	return nil
}

func convertRecordToUser(r record) users.User {
	return users.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func convertUserToRecord(u users.User) record {
	return record{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}
