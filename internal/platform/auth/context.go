package auth

import "context"

// contextWithRole returns a context carrying the given role. Used by tests
// and by the dev middleware.
func contextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

// ContextWithIdentity returns a context carrying the given user id and role.
func ContextWithIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}
