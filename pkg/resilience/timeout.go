package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

// WithTimeout runs fn under a deadline of timeout. fn must honour its
// context. A call that runs into the deadline fails with an error matching
// both errors.ErrTimeout and context.DeadlineExceeded; cancellation of the
// parent is passed through unchanged.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(tctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s after %v: %w: %w", name, timeout, apperrors.ErrTimeout, context.DeadlineExceeded)
	}
	return err
}
