package query

import (
	"context"

	"github.com/softseven/studio-admin/internal/apiclient"
	"github.com/softseven/studio-admin/internal/notify"
)

// Mutation describes the side effects of a write.
type Mutation struct {
	// Invalidate lists the keys made stale by a successful write.
	Invalidate []Key
	// Success is shown after a successful write; empty means silent.
	Success string
	// Failure prefixes the error message shown on failure.
	Failure string
	// InvalidateIf, when set, decides from the write's error whether to
	// invalidate. By default only a nil error invalidates.
	InvalidateIf func(err error) bool
}

// Mutate runs fn and applies m. On failure the cache is left untouched unless
// InvalidateIf says otherwise, and an error notification carrying the
// normalized message is sent.
func Mutate[T any](ctx context.Context, c *Cache, n notify.Notifier, m Mutation, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)

	invalidate := err == nil
	if m.InvalidateIf != nil {
		invalidate = m.InvalidateIf(err)
	}
	if invalidate && len(m.Invalidate) > 0 {
		c.Invalidate(m.Invalidate...)
	}

	if err != nil {
		msg := apiclient.Message(err)
		if m.Failure != "" {
			msg = m.Failure + ": " + msg
		}
		notify.Error(n, msg)
		return v, err
	}
	if m.Success != "" {
		notify.Success(n, m.Success)
	}
	return v, nil
}

// Exec is Mutate for writes without a result.
func Exec(ctx context.Context, c *Cache, n notify.Notifier, m Mutation, fn func(context.Context) error) error {
	_, err := Mutate(ctx, c, n, m, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
