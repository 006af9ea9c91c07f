package interceptors

import (
	"context"
	"strings"

	"github.com/goliatone/go-client-runtime/core"
)

const defaultRequestIDHeader = "X-Request-Id"

// ResponseRequestID captures the service-assigned request id from each
// response into the config bag, where later hooks and error reporting can
// pick it up.
type ResponseRequestID struct {
	core.InterceptorBase

	// Header overrides the default X-Request-Id response header.
	Header string
}

func (r *ResponseRequestID) ReadAfterTransmit(_ context.Context, ictx *core.InterceptorContext, _ *core.RuntimeComponents, bag *core.ConfigBag) error {
	resp := ictx.Response()
	if resp == nil || len(resp.Headers) == 0 {
		return nil
	}
	header := r.Header
	if header == "" {
		header = defaultRequestIDHeader
	}
	for key, value := range resp.Headers {
		if strings.EqualFold(key, header) {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				core.BagPut(bag, capturedRequestID{value: trimmed})
			}
			return nil
		}
	}
	return nil
}

type capturedRequestID struct {
	value string
}

// CapturedRequestID returns the request id recorded from the most recent
// response, if any.
func CapturedRequestID(bag *core.ConfigBag) (string, bool) {
	captured, ok := core.BagValue[capturedRequestID](bag)
	if !ok {
		return "", false
	}
	return captured.value, true
}

var _ core.Interceptor = (*ResponseRequestID)(nil)
