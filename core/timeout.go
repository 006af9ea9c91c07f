package core

import (
	"context"
	"time"
)

// TimeoutScope names which of the two timeout budgets fired.
type TimeoutScope string

const (
	TimeoutScopeOperation TimeoutScope = "operation"
	TimeoutScopeAttempt   TimeoutScope = "attempt"
)

// withTimeout runs fn under a derived deadline when d is positive, and
// unchanged otherwise. Cancellation is cooperative: the work observes the
// derived context and returns. When the derived deadline fired and the
// parent did not, any failure from fn is reported as a TimeoutError for
// that scope so the caller can classify it.
func withTimeout(ctx context.Context, d time.Duration, scope TimeoutScope, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}

	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(tctx)
	if err == nil {
		return nil
	}

	// Only translate when our own deadline fired. A parent cancellation
	// is not a timeout of this scope and passes through untouched.
	if tctx.Err() != nil && ctx.Err() == nil {
		return &TimeoutError{Scope: scope, Timeout: d, Cause: err}
	}
	return err
}
