package domain

import (
	"context"
	"time"
)

// DefaultProfilePicture is the reference every new account starts with.
const DefaultProfilePicture = "/uploads/avatar.png"

// User represents a registered account. Username, Email and Region are
// stored already HTML-escaped.
type User struct {
	Username       string
	Email          string
	PasswordHash   string
	Region         string
	ProfilePicture string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the subset of a User that may be returned to clients.
type PublicUser struct {
	Username       string
	Email          string
	Region         string
	ProfilePicture string
}

// Public returns the client-safe view of the user.
func (u *User) Public() PublicUser {
	pic := u.ProfilePicture
	if pic == "" {
		pic = DefaultProfilePicture
	}
	return PublicUser{
		Username:       u.Username,
		Email:          u.Email,
		Region:         u.Region,
		ProfilePicture: pic,
	}
}

// UserPatch lists the mutable fields of a user. Nil fields are left as is.
type UserPatch struct {
	ProfilePicture *string
}

// UserRepository defines persistence operations for users.
//
// Create must check username and email uniqueness and insert in one
// critical section, returning ErrDuplicateUsername or ErrDuplicateEmail.
// Failures of the backing medium are wrapped with ErrStorage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, username string, patch UserPatch) error
}
