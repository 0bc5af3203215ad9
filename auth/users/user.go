package users

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Patch holds the fields of an update. Nil fields keep their stored value.
type Patch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil
}

// Apply returns u with the patch fields applied. ID and CreatedAt never change.
func (p Patch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	return u
}

// Public returns a copy without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
