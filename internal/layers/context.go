package layers

import (
	"context"
	"errors"
)

// ErrNoRegistry is returned by FromContext when no registry was attached.
var ErrNoRegistry = errors.New("layers: no registry in context")

type ctxKey struct{}

// WithRegistry returns a context carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the registry attached with WithRegistry.
func FromContext(ctx context.Context) (*Registry, error) {
	r, ok := ctx.Value(ctxKey{}).(*Registry)
	if !ok || r == nil {
		return nil, ErrNoRegistry
	}
	return r, nil
}
