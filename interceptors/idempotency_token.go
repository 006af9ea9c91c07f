// Package interceptors provides reusable hook implementations for the
// client runtime.
package interceptors

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-client-runtime/core"
)

// IdempotencyToken fills in an idempotency token before serialization so
// retried requests replay the same token. The token is applied through
// SetToken when the operation input carries the field, and through Header
// otherwise.
type IdempotencyToken struct {
	core.InterceptorBase

	// SetToken writes the token into the operation input. When set it
	// takes precedence over Header.
	SetToken func(input core.Input, token string)
	// Header names the request header to stamp when SetToken is nil.
	// Empty defaults to Idempotency-Key.
	Header string
	// NewToken overrides token generation, mainly for tests.
	NewToken func() string
}

const defaultIdempotencyHeader = "Idempotency-Key"

func (i *IdempotencyToken) token() string {
	if i.NewToken != nil {
		return i.NewToken()
	}
	return uuid.NewString()
}

func (i *IdempotencyToken) ModifyBeforeSerialization(_ context.Context, ictx *core.InterceptorContext, _ *core.RuntimeComponents, bag *core.ConfigBag) error {
	if i.SetToken == nil {
		return nil
	}
	input, ok := ictx.Input()
	if !ok {
		return nil
	}
	token := i.token()
	i.SetToken(input, token)
	core.BagPut(bag, appliedIdempotencyToken{value: token})
	return nil
}

// ModifyBeforeRetryLoop stamps the header form once the request exists, so
// the value sits in the retry checkpoint and replays unchanged.
func (i *IdempotencyToken) ModifyBeforeRetryLoop(_ context.Context, ictx *core.InterceptorContext, _ *core.RuntimeComponents, bag *core.ConfigBag) error {
	if i.SetToken != nil {
		return nil
	}
	req := ictx.Request()
	if req == nil {
		return nil
	}
	header := i.Header
	if header == "" {
		header = defaultIdempotencyHeader
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	if _, exists := req.Headers[header]; exists {
		return nil
	}
	token := i.token()
	req.Headers[header] = token
	core.BagPut(bag, appliedIdempotencyToken{value: token})
	return nil
}

// appliedIdempotencyToken records the token in the config bag for
// diagnostics and tests.
type appliedIdempotencyToken struct {
	value string
}

// AppliedIdempotencyToken returns the token stamped on the current
// invocation, if any.
func AppliedIdempotencyToken(bag *core.ConfigBag) (string, bool) {
	applied, ok := core.BagValue[appliedIdempotencyToken](bag)
	if !ok {
		return "", false
	}
	return applied.value, true
}

var _ core.Interceptor = (*IdempotencyToken)(nil)
