package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithTimeout_ZeroPassesThrough(t *testing.T) {
	called := false
	err := withTimeout(context.Background(), 0, TimeoutScopeAttempt, func(ctx context.Context) error {
		called = true
		if _, hasDeadline := ctx.Deadline(); hasDeadline {
			t.Fatalf("expected no deadline for a disabled budget")
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected pass-through, err=%v called=%v", err, called)
	}
}

func TestWithTimeout_TranslatesOwnDeadline(t *testing.T) {
	err := withTimeout(context.Background(), 20*time.Millisecond, TimeoutScopeAttempt, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Scope != TimeoutScopeAttempt {
		t.Fatalf("expected attempt scope, got %s", timeoutErr.Scope)
	}
	if timeoutErr.Timeout != 20*time.Millisecond {
		t.Fatalf("expected configured timeout recorded, got %s", timeoutErr.Timeout)
	}
}

func TestWithTimeout_ParentCancellationNotTranslated(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	err := withTimeout(parent, time.Minute, TimeoutScopeOperation, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		t.Fatalf("expected parent cancellation to pass through, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWithTimeout_ErrorPassesThroughWithinBudget(t *testing.T) {
	boom := errors.New("boom")
	err := withTimeout(context.Background(), time.Minute, TimeoutScopeAttempt, func(context.Context) error {
		return boom
	})
	if err != boom {
		t.Fatalf("expected untouched error, got %v", err)
	}
}
