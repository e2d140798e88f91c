package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acarlson90/polls/internal/auth"
)

func TestIdentity_HasRole(t *testing.T) {
	id := &auth.Identity{ID: 1, Roles: []auth.Role{auth.RoleUser}}

	assert.True(t, id.HasRole(auth.RoleUser))
	assert.False(t, id.HasRole(auth.RoleAdmin))

	var anonymous *auth.Identity
	assert.False(t, anonymous.HasRole(auth.RoleUser))
}

func TestParseRole(t *testing.T) {
	r, ok := auth.ParseRole("ADMIN")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleAdmin, r)

	_, ok = auth.ParseRole("admin")
	assert.False(t, ok)
}

func TestUser_IdentityOmitsPasswordHash(t *testing.T) {
	u := &auth.User{
		ID:           3,
		Name:         "Ada Lovelace",
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$04$hash",
		Roles:        []auth.Role{auth.RoleUser},
	}

	id := u.Identity()
	assert.Equal(t, &auth.Identity{
		ID:       3,
		Username: "ada",
		Email:    "ada@example.com",
		Name:     "Ada Lovelace",
		Roles:    []auth.Role{auth.RoleUser},
	}, id)

	id.Roles[0] = auth.RoleAdmin
	assert.Equal(t, auth.RoleUser, u.Roles[0], "identity roles must not alias the user's")

	assert.Equal(t, auth.UserSummary{ID: 3, Username: "ada", Name: "Ada Lovelace"}, u.Summary())
}
