package auth_test

import (
	"context"

	"github.com/acarlson90/polls/internal/auth"
)

type fakeUserRepo struct {
	createFn               func(ctx context.Context, user *auth.User) error
	getByIDFn              func(ctx context.Context, id int64) (*auth.User, error)
	getByIDsFn             func(ctx context.Context, ids []int64) ([]auth.User, error)
	getByUsernameFn        func(ctx context.Context, username string) (*auth.User, error)
	getByUsernameOrEmailFn func(ctx context.Context, usernameOrEmail string) (*auth.User, error)
	countAllFn             func(ctx context.Context) (int, error)
}

var _ auth.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(ctx context.Context, user *auth.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []int64) ([]auth.User, error) {
	if f.getByIDsFn != nil {
		return f.getByIDsFn(ctx, ids)
	}
	return []auth.User{}, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	if f.getByUsernameFn != nil {
		return f.getByUsernameFn(ctx, username)
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*auth.User, error) {
	if f.getByUsernameOrEmailFn != nil {
		return f.getByUsernameOrEmailFn(ctx, usernameOrEmail)
	}
	return nil, auth.ErrUserNotFound
}

func (f *fakeUserRepo) CountAll(ctx context.Context) (int, error) {
	if f.countAllFn != nil {
		return f.countAllFn(ctx)
	}
	return 0, nil
}
