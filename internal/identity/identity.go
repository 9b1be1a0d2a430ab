// Package identity carries the authenticated user through request contexts.
package identity

import (
	"context"

	"fluencytrail/models"
)

type contextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// FromContext extracts the authenticated user, if any.
func FromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(models.User)
	return user, ok
}
