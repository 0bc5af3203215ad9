// Package storagetest holds the behaviour every storage.UserStorage must share.
// Backends run it from their own tests:
//
//	suite.Run(t, &storagetest.Suite{New: func(t *testing.T) storage.UserStorage { ... }})
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/njimyasmine/user-management-api/auth/storage"
	"github.com/njimyasmine/user-management-api/auth/users"
	"github.com/stretchr/testify/suite"
)

type Suite struct {
	suite.Suite
	New func(t *testing.T) storage.UserStorage

	storage storage.UserStorage
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.New, "Suite.New MUST be set")
	s.storage = s.New(s.T())
}

func (s *Suite) TearDownTest() {
	s.Require().NoError(s.storage.Close())
}

// NewUser builds a record the way the account service does.
func NewUser(name, email string) users.User {
	return users.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$10$" + name,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func ptr(s string) *string {
	return &s
}

func (s *Suite) mustCreate(name, email string) users.User {
	u, err := s.storage.CreateUser(context.Background(), NewUser(name, email))
	s.Require().NoError(err)
	return u
}

func (s *Suite) TestCreateThenGet() {
	ctx := context.Background()
	created := s.mustCreate("alice", "alice@example.com")

	got, err := s.storage.GetUser(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal("alice", got.Name)
	s.Equal("alice@example.com", got.Email)
	s.Equal(created.PasswordHash, got.PasswordHash)
	s.True(created.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestCreateDuplicateEmail() {
	ctx := context.Background()
	s.mustCreate("alice", "alice@example.com")

	_, err := s.storage.CreateUser(ctx, NewUser("alice2", "alice@example.com"))
	s.ErrorIs(err, storage.ErrEmailTaken)

	list, err := s.storage.ListUsers(ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *Suite) TestEmailIsCaseSensitive() {
	s.mustCreate("alice", "alice@example.com")
	s.mustCreate("alice", "Alice@example.com")

	list, err := s.storage.ListUsers(context.Background())
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *Suite) TestCreateDuplicateID() {
	ctx := context.Background()
	u := s.mustCreate("alice", "alice@example.com")

	dup := NewUser("bob", "bob@example.com")
	dup.ID = u.ID
	_, err := s.storage.CreateUser(ctx, dup)
	s.ErrorIs(err, storage.ErrDuplicateID)
}

func (s *Suite) TestListKeepsInsertionOrder() {
	var want []uuid.UUID
	for i := 0; i < 5; i++ {
		u := s.mustCreate(fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i))
		want = append(want, u.ID)
	}

	list, err := s.storage.ListUsers(context.Background())
	s.Require().NoError(err)
	got := make([]uuid.UUID, 0, len(list))
	for _, u := range list {
		got = append(got, u.ID)
	}
	s.Equal(want, got)
}

func (s *Suite) TestListEmpty() {
	list, err := s.storage.ListUsers(context.Background())
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *Suite) TestGetMissing() {
	_, err := s.storage.GetUser(context.Background(), uuid.New())
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestGetByEmail() {
	ctx := context.Background()
	u := s.mustCreate("alice", "alice@example.com")

	got, err := s.storage.GetUserByEmail(ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)

	_, err = s.storage.GetUserByEmail(ctx, "ALICE@example.com")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestUpdatePartial() {
	ctx := context.Background()
	u := s.mustCreate("alice", "alice@example.com")

	updated, err := s.storage.UpdateUser(ctx, u.ID, users.Patch{Name: ptr("alicia")})
	s.Require().NoError(err)
	s.Equal("alicia", updated.Name)
	s.Equal(u.Email, updated.Email)
	s.Equal(u.PasswordHash, updated.PasswordHash)
	s.True(u.CreatedAt.Equal(updated.CreatedAt))

	got, err := s.storage.GetUser(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alicia", got.Name)
}

func (s *Suite) TestUpdateEmailConflict() {
	ctx := context.Background()
	s.mustCreate("alice", "alice@example.com")
	bob := s.mustCreate("bob", "bob@example.com")

	_, err := s.storage.UpdateUser(ctx, bob.ID, users.Patch{Email: ptr("alice@example.com")})
	s.ErrorIs(err, storage.ErrEmailTaken)

	got, err := s.storage.GetUser(ctx, bob.ID)
	s.Require().NoError(err)
	s.Equal("bob@example.com", got.Email)
}

func (s *Suite) TestUpdateOwnEmail() {
	u := s.mustCreate("alice", "alice@example.com")

	_, err := s.storage.UpdateUser(context.Background(), u.ID, users.Patch{Email: ptr("alice@example.com")})
	s.NoError(err)
}

func (s *Suite) TestUpdateMissing() {
	_, err := s.storage.UpdateUser(context.Background(), uuid.New(), users.Patch{Name: ptr("x")})
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestDelete() {
	ctx := context.Background()
	alice := s.mustCreate("alice", "alice@example.com")
	bob := s.mustCreate("bob", "bob@example.com")

	s.Require().NoError(s.storage.DeleteUser(ctx, alice.ID))

	_, err := s.storage.GetUser(ctx, alice.ID)
	s.ErrorIs(err, storage.ErrNotFound)
	s.ErrorIs(s.storage.DeleteUser(ctx, alice.ID), storage.ErrNotFound)

	got, err := s.storage.GetUser(ctx, bob.ID)
	s.Require().NoError(err)
	s.Equal(bob.ID, got.ID)

	// the email is free again
	s.mustCreate("alice", "alice@example.com")
}

func (s *Suite) TestConcurrentCreates() {
	ctx := context.Background()
	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.storage.CreateUser(ctx, NewUser(fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	list, err := s.storage.ListUsers(ctx)
	s.Require().NoError(err)
	s.Len(list, n)
}

func (s *Suite) TestConcurrentUpdatesAreNotLost() {
	ctx := context.Background()
	const n = 10
	created := make([]users.User, n)
	for i := range created {
		created[i] = s.mustCreate(fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i))
	}

	var wg sync.WaitGroup
	for i := range created {
		wg.Add(1)
		go func(u users.User) {
			defer wg.Done()
			_, err := s.storage.UpdateUser(ctx, u.ID, users.Patch{Name: ptr(u.Name + "-renamed")})
			s.NoError(err)
		}(created[i])
	}
	wg.Wait()

	list, err := s.storage.ListUsers(ctx)
	s.Require().NoError(err)
	s.Require().Len(list, n)
	for i, u := range list {
		s.Equal(created[i].Name+"-renamed", u.Name)
	}
}

func (s *Suite) TestConcurrentDuplicateEmail() {
	ctx := context.Background()
	const n = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.storage.CreateUser(ctx, NewUser(fmt.Sprintf("user%d", i), "same@example.com"))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			s.ErrorIs(err, storage.ErrEmailTaken)
		}(i)
	}
	wg.Wait()
	s.Equal(1, succeeded)
}
