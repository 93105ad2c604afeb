package push

import "context"

type contextKey struct{}

// NewContext returns a context carrying the given Scene.  Middleware
// typically attaches a fresh Scene to each incoming request's context.
func NewContext(ctx context.Context, s *Scene) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Scene attached to ctx, or nil if there is none.
func FromContext(ctx context.Context) *Scene {
	var s, _ = ctx.Value(contextKey{}).(*Scene)
	return s
}
