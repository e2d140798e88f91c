package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrIdentityNotFound is returned when a token subject no longer maps to a user.
// Callers treat it exactly like a failed authentication.
var ErrIdentityNotFound = errors.New("identity not found")

// Resolver maps a verified token subject to the identity it names.
type Resolver struct {
	users UserRepository
}

// NewResolver creates a Resolver backed by the given user store.
func NewResolver(users UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Resolve performs a single lookup of subject by primary id.
func (r *Resolver) Resolve(ctx context.Context, subject int64) (*Identity, error) {
	u, err := r.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("resolving identity %d: %w", subject, err)
	}
	return u.Identity(), nil
}
