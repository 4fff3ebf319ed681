package auth

import "context"

type contextKey struct{}

// Actor identifies the authenticated user for a request. It carries no
// role or household scope; roles are resolved per operation against the
// household being acted on.
type Actor struct {
	UserID    string
	SessionID string
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

// UserID returns the authenticated user's id, or "" if unauthenticated.
func UserID(ctx context.Context) string {
	a, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return a.UserID
}
