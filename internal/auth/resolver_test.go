package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acarlson90/polls/internal/auth"
)

func TestResolve_Found(t *testing.T) {
	repo := &fakeUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*auth.User, error) {
			return &auth.User{ID: id, Username: "bob", Roles: []auth.Role{auth.RoleUser}}, nil
		},
	}

	id, err := auth.NewResolver(repo).Resolve(context.Background(), 11)

	require.NoError(t, err)
	assert.Equal(t, int64(11), id.ID)
	assert.Equal(t, "bob", id.Username)
	assert.True(t, id.HasRole(auth.RoleUser))
}

func TestResolve_NotFound(t *testing.T) {
	_, err := auth.NewResolver(&fakeUserRepo{}).Resolve(context.Background(), 11)

	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestResolve_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	repo := &fakeUserRepo{
		getByIDFn: func(context.Context, int64) (*auth.User, error) { return nil, storeErr },
	}

	_, err := auth.NewResolver(repo).Resolve(context.Background(), 11)

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, auth.ErrIdentityNotFound)
}
