package auth

import (
	"slices"
	"time"
)

// Role is a capability granted to a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole returns the Role named by s, or false if s names no known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// User represents a row in the users table together with its roles.
type User struct {
	ID           int64
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is stored in the request context after authentication. It is
// never mutated once resolved and carries no credential material.
type Identity struct {
	ID       int64
	Username string
	Email    string
	Name     string
	Roles    []Role
}

// HasRole reports whether the identity was granted role. A nil identity has no roles.
func (i *Identity) HasRole(role Role) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Roles, role)
}

// Identity returns the request-scoped view of u.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
		Roles:    slices.Clone(u.Roles),
	}
}

// UserSummary is the public projection of a user embedded in poll responses.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}
