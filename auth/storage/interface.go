package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/njimyasmine/user-management-api/auth/users"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailTaken  = errors.New("email already taken")
	ErrDuplicateID = errors.New("user id already exists")
)

// UserStorage owns the user records. Implementations must serialize
// mutations and never expose a partially applied change to readers.
type UserStorage interface {
	CreateUser(ctx context.Context, user users.User) (users.User, error)
	ListUsers(ctx context.Context) ([]users.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (users.User, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, patch users.Patch) (users.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	Close() error
}
