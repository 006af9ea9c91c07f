// Package retry provides retry strategies for the client runtime: a
// strategy that never retries and a standard exponential-backoff strategy
// with status-code classification and Retry-After support.
package retry

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-client-runtime/core"
)

const (
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxAttempts    = 3
)

var defaultRetryableStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// NeverStrategy permits the initial attempt and nothing else.
type NeverStrategy struct{}

func (NeverStrategy) ShouldAttemptInitial(*core.RuntimeComponents, *core.ConfigBag) (core.AttemptOutcome, error) {
	return core.AttemptOutcome{Attempt: true}, nil
}

func (NeverStrategy) ShouldAttemptRetry(*core.InterceptorContext, *core.RuntimeComponents, *core.ConfigBag) (core.AttemptOutcome, error) {
	return core.AttemptOutcome{}, nil
}

// StandardStrategy retries transient failures with capped exponential
// backoff. Transport timeouts, IO errors, attempt timeouts, and retryable
// status codes are retried; context cancellation never is. A Retry-After
// header on the failed response overrides the computed backoff.
type StandardStrategy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	RetryableStatusCodes []int
}

func NewStandardStrategy() *StandardStrategy {
	return &StandardStrategy{}
}

func (s *StandardStrategy) ShouldAttemptInitial(*core.RuntimeComponents, *core.ConfigBag) (core.AttemptOutcome, error) {
	return core.AttemptOutcome{Attempt: true}, nil
}

func (s *StandardStrategy) ShouldAttemptRetry(
	ictx *core.InterceptorContext,
	_ *core.RuntimeComponents,
	bag *core.ConfigBag,
) (core.AttemptOutcome, error) {
	err := ictx.Err()
	if err == nil {
		return core.AttemptOutcome{}, nil
	}

	policy := s.normalized()
	attempt := 1
	if attempts, ok := core.BagValue[core.RequestAttempts](bag); ok {
		attempt = attempts.Attempt
	}
	if attempt >= policy.MaxAttempts {
		return core.AttemptOutcome{}, nil
	}
	if !retryable(err, ictx.Response(), policy.RetryableStatusCodes) {
		return core.AttemptOutcome{}, nil
	}

	delay := delayForAttempt(policy, attempt)
	if after, ok := retryAfter(ictx.Response()); ok {
		delay = after
	}
	return core.AttemptOutcome{Attempt: true, Delay: delay}, nil
}

func (s *StandardStrategy) normalized() StandardStrategy {
	policy := StandardStrategy{}
	if s != nil {
		policy = *s
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaultMaxAttempts
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = defaultInitialBackoff
	}
	if policy.MaxBackoff <= 0 {
		policy.MaxBackoff = defaultMaxBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if len(policy.RetryableStatusCodes) == 0 {
		policy.RetryableStatusCodes = append([]int(nil), defaultRetryableStatuses...)
	}
	return policy
}

func retryable(err error, resp *core.Response, statuses []int) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var timeoutErr *core.TimeoutError
	if errors.As(err, &timeoutErr) {
		// An exhausted operation budget leaves no room for another
		// attempt; an attempt timeout does.
		return timeoutErr.Scope == core.TimeoutScopeAttempt
	}

	var connectorErr *core.ConnectorError
	if errors.As(err, &connectorErr) {
		switch connectorErr.Kind {
		case core.ConnectorErrorTimeout, core.ConnectorErrorIO:
			return true
		default:
			return false
		}
	}

	if resp != nil {
		return slices.Contains(statuses, resp.StatusCode)
	}
	return false
}

func delayForAttempt(policy StandardStrategy, attempt int) time.Duration {
	delay := policy.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= policy.MaxBackoff {
			return policy.MaxBackoff
		}
	}
	if delay > policy.MaxBackoff {
		return policy.MaxBackoff
	}
	return delay
}

func retryAfter(resp *core.Response) (time.Duration, bool) {
	if resp == nil || len(resp.Headers) == 0 {
		return 0, false
	}
	raw := ""
	for key, value := range resp.Headers {
		if strings.EqualFold(strings.TrimSpace(key), "retry-after") {
			raw = strings.TrimSpace(value)
			break
		}
	}
	if raw == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if retryAt, err := time.Parse(time.RFC1123, raw); err == nil {
		if retryAt.After(time.Now().UTC()) {
			return retryAt.Sub(time.Now().UTC()), true
		}
	}
	if retryAt, err := time.Parse(time.RFC1123Z, raw); err == nil {
		if retryAt.After(time.Now().UTC()) {
			return retryAt.Sub(time.Now().UTC()), true
		}
	}
	return 0, false
}

var (
	_ core.RetryStrategy = NeverStrategy{}
	_ core.RetryStrategy = (*StandardStrategy)(nil)
)
