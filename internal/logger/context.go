package logger

import "context"

type contextKey struct{}

// IntoContext returns a new context carrying the given logger.
func IntoContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in the context, or a no-op
// logger if none is present. Handlers can always log through the
// returned value without nil checks.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return NewNop()
}
