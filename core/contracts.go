package core

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Input is the typed operation input crossing the pipeline. Serializers
// downcast it to the concrete operation type; a mismatch is a wiring bug,
// not a request failure.
type Input = any

// Output is the typed operation output produced by deserialization.
type Output = any

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// Request is the wire request built by serialization and consumed by the
// connector. Headers and query values are single-valued; the connector is
// responsible for any protocol-level folding.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   map[string]string
	Body    *Body
}

// TryClone returns a deep copy of the request, or nil when the body is
// stream backed and cannot be replayed.
func (r *Request) TryClone() *Request {
	if r == nil {
		return nil
	}
	var body *Body
	if r.Body != nil {
		if !r.Body.IsReplayable() {
			return nil
		}
		body = r.Body.TryClone()
	}
	return &Request{
		Method:  r.Method,
		URL:     r.URL,
		Headers: copyStringMap(r.Headers),
		Query:   copyStringMap(r.Query),
		Body:    body,
	}
}

// Response is the raw wire response recorded during transmit. The body may
// be stream backed until the engine buffers it for non-streaming
// deserialization.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       *Body
	Metadata   map[string]any
}

// Endpoint is the resolved destination for one attempt.
type Endpoint struct {
	URL     string
	Headers map[string]string
}

// EndpointParams carries caller-supplied endpoint resolution inputs through
// the config bag.
type EndpointParams struct {
	Value any
}

// RequestAttempts tracks the current attempt number, stored in the config
// bag so interceptors and retry strategies can observe it.
type RequestAttempts struct {
	Attempt int
}

// TimeoutOverrides, when present in the config bag, takes precedence over
// the service-level timeout configuration for one invocation.
type TimeoutOverrides struct {
	Operation time.Duration
	Attempt   time.Duration
}

// AttemptOutcome is a retry-strategy verdict. Attempt false means stop (or,
// for the initial decision, refuse); a positive Delay defers the attempt.
type AttemptOutcome struct {
	Attempt bool
	Delay   time.Duration
}

// RetryStrategy decides whether attempts are made. A refusal of the initial
// attempt must be expressed as an error carrying the reason; returning
// {Attempt: false} without one is reported as a strategy wiring failure.
type RetryStrategy interface {
	ShouldAttemptInitial(rc *RuntimeComponents, bag *ConfigBag) (AttemptOutcome, error)
	ShouldAttemptRetry(ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) (AttemptOutcome, error)
}

// EndpointResolver resolves the destination for one attempt. Failures are
// attempt-fatal.
type EndpointResolver interface {
	ResolveEndpoint(ctx context.Context, params any, bag *ConfigBag) (Endpoint, error)
}

// Signer authenticates a fully built request in place.
type Signer interface {
	Sign(ctx context.Context, req *Request, bag *ConfigBag) error
}

// AuthScheme pairs a scheme identity with its signer. A nil Signer means
// the scheme transmits unsigned requests.
type AuthScheme struct {
	ID     string
	Signer Signer
}

// AuthSchemeResolver selects the auth scheme for one attempt. Failures are
// attempt-fatal.
type AuthSchemeResolver interface {
	ResolveAuthScheme(ctx context.Context, rc *RuntimeComponents, bag *ConfigBag) (AuthScheme, error)
}

// Connector transmits a request. Transport-level failures should be
// returned as *ConnectorError so retry classification can distinguish them
// from orchestration failures; any other error is treated as a generic
// dispatch failure.
type Connector interface {
	Call(ctx context.Context, req *Request) (*Response, error)
}

// RequestSerializer converts typed input into a wire request.
type RequestSerializer interface {
	SerializeInput(input Input, bag *ConfigBag) (*Request, error)
}

// ResponseDeserializer parses the raw response. DeserializeStreaming is
// offered the response first; returning handled=false declines, after which
// the engine buffers the body and calls DeserializeNonstreaming.
type ResponseDeserializer interface {
	DeserializeStreaming(resp *Response) (output Output, handled bool, err error)
	DeserializeNonstreaming(resp *Response) (Output, error)
}

// SleepFunc suspends until the delay elapses or ctx is done.
type SleepFunc func(ctx context.Context, delay time.Duration) error

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// RuntimeComponents is the merged set of collaborators for one invocation.
// Client-scope interceptors always run before operation-scope interceptors
// at every hook point.
type RuntimeComponents struct {
	RetryStrategy         RetryStrategy
	EndpointResolver      EndpointResolver
	AuthSchemeResolver    AuthSchemeResolver
	Connector             Connector
	Sleep                 SleepFunc
	clientInterceptors    []Interceptor
	operationInterceptors []Interceptor
}

// Interceptors returns the composed hook order: client scope first, then
// operation scope, each in registration order.
func (rc *RuntimeComponents) Interceptors() []Interceptor {
	if rc == nil {
		return nil
	}
	out := make([]Interceptor, 0, len(rc.clientInterceptors)+len(rc.operationInterceptors))
	out = append(out, rc.clientInterceptors...)
	out = append(out, rc.operationInterceptors...)
	return out
}

func (rc *RuntimeComponents) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if rc != nil && rc.Sleep != nil {
		return rc.Sleep(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// OperationRequest describes one logical service call.
type OperationRequest struct {
	Operation      string
	Input          Input
	Serializer     RequestSerializer
	Deserializer   ResponseDeserializer
	Interceptors   []Interceptor
	EndpointParams any

	// Per-operation collaborator overrides; nil falls back to the
	// service-level component.
	RetryStrategy      RetryStrategy
	EndpointResolver   EndpointResolver
	AuthSchemeResolver AuthSchemeResolver
	Connector          Connector

	// Configure, when set, runs against the operation config layer before
	// any interceptor executes.
	Configure func(bag *ConfigBag) error
}

func (r OperationRequest) validate() error {
	if r.Serializer == nil {
		return fmt.Errorf("core: operation request serializer is required")
	}
	if r.Deserializer == nil {
		return fmt.Errorf("core: operation request deserializer is required")
	}
	return nil
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cloneFields(in map[string]any) map[string]any {
	return copyAnyMap(in)
}
