package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// recordingInterceptor appends "<name>:<hook>" to a shared trace for every
// hook it runs, and fails at the hooks listed in failOn.
type recordingInterceptor struct {
	name   string
	trace  *[]string
	failOn map[HookID]error
}

func newRecordingInterceptor(name string, trace *[]string) *recordingInterceptor {
	return &recordingInterceptor{name: name, trace: trace, failOn: map[HookID]error{}}
}

func (i *recordingInterceptor) failAt(hook HookID, err error) *recordingInterceptor {
	i.failOn[hook] = err
	return i
}

func (i *recordingInterceptor) observe(hook HookID) error {
	*i.trace = append(*i.trace, fmt.Sprintf("%s:%s", i.name, hook))
	if err, ok := i.failOn[hook]; ok {
		return err
	}
	return nil
}

func (i *recordingInterceptor) ReadBeforeExecution(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadBeforeExecution)
}

func (i *recordingInterceptor) ReadBeforeSerialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadBeforeSerialization)
}

func (i *recordingInterceptor) ModifyBeforeSerialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookModifyBeforeSerialization)
}

func (i *recordingInterceptor) ReadAfterSerialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadAfterSerialization)
}

func (i *recordingInterceptor) ModifyBeforeRetryLoop(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookModifyBeforeRetryLoop)
}

func (i *recordingInterceptor) ReadBeforeAttempt(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadBeforeAttempt)
}

func (i *recordingInterceptor) ModifyBeforeSigning(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookModifyBeforeSigning)
}

func (i *recordingInterceptor) ReadBeforeSigning(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadBeforeSigning)
}

func (i *recordingInterceptor) ReadAfterSigning(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadAfterSigning)
}

func (i *recordingInterceptor) ModifyBeforeTransmit(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookModifyBeforeTransmit)
}

func (i *recordingInterceptor) ReadBeforeTransmit(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadBeforeTransmit)
}

func (i *recordingInterceptor) ReadAfterTransmit(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadAfterTransmit)
}

func (i *recordingInterceptor) ModifyBeforeDeserialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookModifyBeforeDeserialization)
}

func (i *recordingInterceptor) ReadBeforeDeserialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadBeforeDeserialization)
}

func (i *recordingInterceptor) ReadAfterDeserialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadAfterDeserialization)
}

func (i *recordingInterceptor) ModifyBeforeAttemptCompletion(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookModifyBeforeAttemptCompletion)
}

func (i *recordingInterceptor) ReadAfterAttempt(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadAfterAttempt)
}

func (i *recordingInterceptor) ModifyBeforeCompletion(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookModifyBeforeCompletion)
}

func (i *recordingInterceptor) ReadAfterExecution(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return i.observe(HookReadAfterExecution)
}

type funcSerializer struct {
	fn func(input Input, bag *ConfigBag) (*Request, error)
}

func (s funcSerializer) SerializeInput(input Input, bag *ConfigBag) (*Request, error) {
	return s.fn(input, bag)
}

func staticSerializer(req func() *Request) funcSerializer {
	return funcSerializer{fn: func(Input, *ConfigBag) (*Request, error) {
		return req(), nil
	}}
}

func testRequest() *Request {
	return &Request{
		Method:  "POST",
		URL:     "/things",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    NewBody([]byte(`{"name":"thing"}`)),
	}
}

type funcDeserializer struct {
	streaming    func(resp *Response) (Output, bool, error)
	nonstreaming func(resp *Response) (Output, error)
}

func (d funcDeserializer) DeserializeStreaming(resp *Response) (Output, bool, error) {
	if d.streaming == nil {
		return nil, false, nil
	}
	return d.streaming(resp)
}

func (d funcDeserializer) DeserializeNonstreaming(resp *Response) (Output, error) {
	if d.nonstreaming == nil {
		return nil, fmt.Errorf("no nonstreaming deserializer")
	}
	return d.nonstreaming(resp)
}

func staticDeserializer(output Output) funcDeserializer {
	return funcDeserializer{nonstreaming: func(*Response) (Output, error) {
		return output, nil
	}}
}

// fakeConnector returns scripted results in order, recording every request
// it receives.
type fakeConnector struct {
	mu       sync.Mutex
	requests []*Request
	results  []connectorResult
}

type connectorResult struct {
	resp *Response
	err  error
}

func (c *fakeConnector) respondWith(resp *Response) *fakeConnector {
	c.results = append(c.results, connectorResult{resp: resp})
	return c
}

func (c *fakeConnector) failWith(err error) *fakeConnector {
	c.results = append(c.results, connectorResult{err: err})
	return c
}

func (c *fakeConnector) Call(_ context.Context, req *Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.results) == 0 {
		return okResponse(), nil
	}
	result := c.results[0]
	c.results = c.results[1:]
	return result.resp, result.err
}

func (c *fakeConnector) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func okResponse() *Response {
	return &Response{
		StatusCode: 200,
		Headers:    map[string]string{},
		Body:       NewBody([]byte(`{}`)),
	}
}

// scriptedStrategy replays a fixed list of retry verdicts and records the
// failures it was asked to judge.
type scriptedStrategy struct {
	verdicts []AttemptOutcome
	judged   []error
}

func (s *scriptedStrategy) ShouldAttemptInitial(*RuntimeComponents, *ConfigBag) (AttemptOutcome, error) {
	return AttemptOutcome{Attempt: true}, nil
}

func (s *scriptedStrategy) ShouldAttemptRetry(ictx *InterceptorContext, _ *RuntimeComponents, _ *ConfigBag) (AttemptOutcome, error) {
	s.judged = append(s.judged, ictx.Err())
	if len(s.verdicts) == 0 {
		return AttemptOutcome{}, nil
	}
	verdict := s.verdicts[0]
	s.verdicts = s.verdicts[1:]
	return verdict, nil
}

type refusingStrategy struct{}

func (refusingStrategy) ShouldAttemptInitial(*RuntimeComponents, *ConfigBag) (AttemptOutcome, error) {
	return AttemptOutcome{}, nil
}

func (refusingStrategy) ShouldAttemptRetry(*InterceptorContext, *RuntimeComponents, *ConfigBag) (AttemptOutcome, error) {
	return AttemptOutcome{}, nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

func (m *recordingMetrics) IncCounter(_ context.Context, name string, value int64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = map[string]int64{}
	}
	m.counters[name] += value
}

func (m *recordingMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func (m *recordingMetrics) counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

func newTestService(t *testing.T, options ...Option) *Service {
	t.Helper()
	svc, err := NewService(Config{ServiceName: "test-client"}, options...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func instantSleep(context.Context, time.Duration) error {
	return nil
}

func testOperation(connector Connector, interceptors ...Interceptor) OperationRequest {
	return OperationRequest{
		Operation:        "create-thing",
		Input:            map[string]string{"name": "thing"},
		Serializer:       staticSerializer(testRequest),
		Deserializer:     staticDeserializer("output"),
		Interceptors:     interceptors,
		Connector:        connector,
		EndpointResolver: StaticEndpointResolver{Endpoint: Endpoint{URL: "https://api.example.com/v1"}},
	}
}
