package auth

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when a user record is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateUser is returned when the username or email is already taken.
var ErrDuplicateUser = errors.New("username or email already exists")

// UserRepository provides operations on the users table.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []int64) ([]User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*User, error)
	CountAll(ctx context.Context) (int, error)
}
