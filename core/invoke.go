package core

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// StopPoint interrupts an invocation at a well-known place, used by tests
// and dry-run tooling to observe the fully prepared request without
// transmitting it.
type StopPoint int

const (
	// StopPointNone runs the operation to completion.
	StopPointNone StopPoint = iota
	// StopPointBeforeTransmit stops after the request is fully prepared,
	// right before the connector would be called. Finalizer hooks still
	// run.
	StopPointBeforeTransmit
)

// invocation bundles the per-call state threaded through the pipeline.
type invocation struct {
	req            OperationRequest
	ictx           *InterceptorContext
	rc             *RuntimeComponents
	bag            *ConfigBag
	attemptTimeout time.Duration
}

func (inv *invocation) fields() map[string]any {
	fields := map[string]any{
		"operation": inv.req.Operation,
	}
	if attempts, ok := BagValue[RequestAttempts](inv.bag); ok {
		fields["attempt"] = attempts.Attempt
	}
	return fields
}

func (inv *invocation) attempts() int {
	if attempts, ok := BagValue[RequestAttempts](inv.bag); ok {
		return attempts.Attempt
	}
	return 0
}

// Invoke runs one operation through the full pipeline and returns the
// parsed output or a typed OperationError describing where the call
// failed.
func (s *Service) Invoke(ctx context.Context, req OperationRequest) (Output, error) {
	startedAt := time.Now()

	inv, err := s.invoke(ctx, req, StopPointNone)
	if err != nil {
		opErr := &OperationError{
			Service:   s.config.ServiceName,
			Operation: req.Operation,
			Kind:      FailureConstruction,
			Cause:     mapBuildError(s.errorMapper, err),
		}
		s.observeOperation(ctx, startedAt, "invoke", opErr, map[string]any{
			"operation":    req.Operation,
			"failure_kind": string(opErr.Kind),
		})
		return nil, opErr
	}

	output, opErr := s.finalize(req, inv)
	fields := inv.fields()
	if opErr != nil {
		fields["failure_kind"] = string(opErr.Kind)
		if opErr.Hook != "" {
			fields["hook"] = opErr.Hook
		}
		s.observeOperation(ctx, startedAt, "invoke", opErr, fields)
		return nil, opErr
	}
	s.observeOperation(ctx, startedAt, "invoke", nil, fields)
	return output, nil
}

// InvokeWithStopPoint runs the pipeline up to the given stop point and
// returns the invocation context for inspection. The returned error is
// non-nil only for configuration failures raised before the pipeline could
// start; pipeline failures are recorded on the context.
func (s *Service) InvokeWithStopPoint(ctx context.Context, req OperationRequest, stop StopPoint) (*InterceptorContext, error) {
	inv, err := s.invoke(ctx, req, stop)
	if err != nil {
		return nil, mapBuildError(s.errorMapper, err)
	}
	return inv.ictx, nil
}

func (s *Service) invoke(ctx context.Context, req OperationRequest, stop StopPoint) (*invocation, error) {
	if err := req.validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid operation request").
			WithTextCode(ClientErrorBadInput)
	}

	inv := &invocation{
		req:  req,
		ictx: NewInterceptorContext(req.Input),
		rc:   s.runtimeComponents(req),
		bag:  NewConfigBag(),
	}

	if err := s.applyConfiguration(ctx, inv); err != nil {
		return nil, err
	}

	operationTimeout := s.config.Timeouts.Operation
	inv.attemptTimeout = s.config.Timeouts.Attempt
	if overrides, ok := BagValue[TimeoutOverrides](inv.bag); ok {
		if overrides.Operation > 0 {
			operationTimeout = overrides.Operation
		}
		if overrides.Attempt > 0 {
			inv.attemptTimeout = overrides.Attempt
		}
	}

	err := withTimeout(ctx, operationTimeout, TimeoutScopeOperation, func(octx context.Context) error {
		// A failure from the pre-execution hooks skips the operation body
		// but still runs the operation finalizers.
		if !inv.ictx.IsFailed() {
			s.tryOp(octx, inv, stop)
		}
		s.finallyOp(octx, inv)
		return inv.ictx.Err()
	})
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) && !isTimeoutFailure(inv.ictx.Err()) {
		s.recordFailure(ctx, inv, orchestrateTimeout(timeoutErr))
	}
	return inv, nil
}

// applyConfiguration seeds the config bag and runs the pre-execution hooks
// for each scope. Hook failures are recorded on the context so the
// operation finalizers still observe them; wiring failures are returned
// directly.
func (s *Service) applyConfiguration(ctx context.Context, inv *invocation) error {
	inv.bag.Push("client")
	if inv.req.EndpointParams != nil {
		BagPut(inv.bag, EndpointParams{Value: inv.req.EndpointParams})
	}

	inv.bag.Push("operation")
	if inv.req.Configure != nil {
		if err := inv.req.Configure(inv.bag); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "operation configuration failed").
				WithTextCode(ClientErrorConstruction)
		}
	}

	// Each scope's pre-execution hooks run even when the other scope
	// already failed; within one scope the first failure skips the rest.
	if err := dispatchHook(ctx, HookReadBeforeExecution, inv.rc.clientInterceptors, inv.ictx, inv.rc, inv.bag); err != nil {
		s.recordFailure(ctx, inv, err)
	}
	if err := dispatchHook(ctx, HookReadBeforeExecution, inv.rc.operationInterceptors, inv.ictx, inv.rc, inv.bag); err != nil {
		s.recordFailure(ctx, inv, err)
	}
	return nil
}

// recordFailure stores err on the context, logging any earlier failure it
// displaces. It reports whether there was a failure so halting call sites
// can return early.
func (s *Service) recordFailure(ctx context.Context, inv *invocation, err error) bool {
	if err == nil {
		return false
	}
	discarded := inv.ictx.Fail(err)
	if discarded != nil {
		s.logDiscard(ctx, discarded, inv.fields())
	}
	return true
}

func (s *Service) runHalt(ctx context.Context, hook HookID, inv *invocation) bool {
	err := dispatchHook(ctx, hook, inv.rc.Interceptors(), inv.ictx, inv.rc, inv.bag)
	return s.recordFailure(ctx, inv, err)
}

func (s *Service) runContinue(ctx context.Context, hook HookID, inv *invocation) {
	err := dispatchHook(ctx, hook, inv.rc.Interceptors(), inv.ictx, inv.rc, inv.bag)
	s.recordFailure(ctx, inv, err)
}

// tryOp serializes the request and drives the retry loop. Any failure is
// recorded on the context and stops the operation body; the caller always
// runs the operation finalizers afterwards.
func (s *Service) tryOp(ctx context.Context, inv *invocation, stop StopPoint) {
	if s.runHalt(ctx, HookReadBeforeSerialization, inv) {
		return
	}
	if s.runHalt(ctx, HookModifyBeforeSerialization, inv) {
		return
	}

	if err := inv.ictx.EnterSerializationPhase(); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}
	input, err := inv.ictx.TakeInput()
	if s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}
	request, err := inv.req.Serializer.SerializeInput(input, inv.bag)
	if err != nil {
		wrapped := goerrors.Wrap(err, goerrors.CategoryBadInput, "request serialization failed").
			WithTextCode(ClientErrorConstruction)
		s.recordFailure(ctx, inv, orchestrateOther(wrapped))
		return
	}
	if request == nil {
		s.recordFailure(ctx, inv, orchestrateOther(programmingError("serializer produced no request")))
		return
	}
	inv.ictx.SetRequest(request)
	if err := inv.ictx.EnterBeforeTransmitPhase(); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}

	if s.runHalt(ctx, HookReadAfterSerialization, inv) {
		return
	}
	if s.runHalt(ctx, HookModifyBeforeRetryLoop, inv) {
		return
	}

	if !s.shouldAttemptInitial(ctx, inv) {
		return
	}

	inv.ictx.SaveCheckpoint()

	var retryDelay time.Duration
	for attempt := 1; ; attempt++ {
		// The first rewind only marks the request as in flight; later ones
		// restore the checkpoint. When the body cannot be replayed the loop
		// simply ends and the last attempt's outcome stands.
		switch inv.ictx.Rewind() {
		case RewindImpossible:
			s.logInfo(ctx, "request cannot be replayed, keeping the last attempt's result", inv.fields())
			return
		case RewindOccurred:
			s.logInfo(ctx, "retrying request", inv.fields())
		}
		BagPut(inv.bag, RequestAttempts{Attempt: attempt})

		// The pending backoff runs after the rewind check, outside the
		// attempt timeout, so it is never spent on a retry that cannot
		// happen and never consumes the attempt's budget.
		if retryDelay > 0 {
			if err := inv.rc.sleep(ctx, retryDelay); err != nil {
				s.recordFailure(ctx, inv, orchestrateOther(
					goerrors.Wrap(err, goerrors.CategoryExternal, "retry delay interrupted").
						WithTextCode(ClientErrorDispatch),
				))
				return
			}
		}

		err := withTimeout(ctx, inv.attemptTimeout, TimeoutScopeAttempt, func(actx context.Context) error {
			s.tryAttempt(actx, inv, stop)
			s.finallyAttempt(actx, inv)
			return inv.ictx.Err()
		})
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) && !isTimeoutFailure(inv.ictx.Err()) {
			s.recordFailure(ctx, inv, orchestrateTimeout(timeoutErr))
		}

		outcome, retryErr := s.shouldAttemptRetry(inv)
		if retryErr != nil {
			s.recordFailure(ctx, inv, orchestrateOther(retryErr))
			return
		}
		if !outcome.Attempt {
			return
		}
		retryDelay = outcome.Delay
	}
}

// shouldAttemptInitial consults the retry strategy before the first
// attempt. A refusal without a reason is reported as a strategy wiring
// failure rather than silently dropped.
func (s *Service) shouldAttemptInitial(ctx context.Context, inv *invocation) bool {
	if inv.rc.RetryStrategy == nil {
		return true
	}
	outcome, err := inv.rc.RetryStrategy.ShouldAttemptInitial(inv.rc, inv.bag)
	if err != nil {
		s.recordFailure(ctx, inv, orchestrateOther(err))
		return false
	}
	if !outcome.Attempt {
		s.recordFailure(ctx, inv, orchestrateOther(
			goerrors.New("retry strategy refused the initial attempt without a reason", goerrors.CategoryInternal).
				WithTextCode(ClientErrorInternal),
		))
		return false
	}
	if outcome.Delay > 0 {
		if err := inv.rc.sleep(ctx, outcome.Delay); err != nil {
			s.recordFailure(ctx, inv, orchestrateOther(
				goerrors.Wrap(err, goerrors.CategoryExternal, "initial attempt delay interrupted").
					WithTextCode(ClientErrorDispatch),
			))
			return false
		}
	}
	return true
}

func (s *Service) shouldAttemptRetry(inv *invocation) (AttemptOutcome, error) {
	if inv.rc.RetryStrategy == nil {
		return AttemptOutcome{}, nil
	}
	return inv.rc.RetryStrategy.ShouldAttemptRetry(inv.ictx, inv.rc, inv.bag)
}

// tryAttempt runs one attempt: resolve, sign, transmit, deserialize. Any
// failure is recorded on the context and stops the attempt body; the
// caller always runs the attempt finalizers afterwards.
func (s *Service) tryAttempt(ctx context.Context, inv *invocation, stop StopPoint) {
	if s.runHalt(ctx, HookReadBeforeAttempt, inv) {
		return
	}

	if err := orchestrateEndpoint(ctx, inv.ictx, inv.rc, inv.bag); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}

	if s.runHalt(ctx, HookModifyBeforeSigning, inv) {
		return
	}
	if s.runHalt(ctx, HookReadBeforeSigning, inv) {
		return
	}

	if err := orchestrateAuth(ctx, inv.ictx, inv.rc, inv.bag); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}

	if s.runHalt(ctx, HookReadAfterSigning, inv) {
		return
	}
	if s.runHalt(ctx, HookModifyBeforeTransmit, inv) {
		return
	}
	if s.runHalt(ctx, HookReadBeforeTransmit, inv) {
		return
	}

	if stop == StopPointBeforeTransmit {
		return
	}

	if err := inv.ictx.EnterTransmitPhase(); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}
	if inv.rc.Connector == nil {
		s.recordFailure(ctx, inv, orchestrateOther(programmingError("no connector configured")))
		return
	}
	request := inv.ictx.TakeRequest()
	response, err := inv.rc.Connector.Call(ctx, request)
	if err != nil {
		var connectorErr *ConnectorError
		if errors.As(err, &connectorErr) {
			s.recordFailure(ctx, inv, orchestrateConnector(connectorErr))
		} else {
			s.recordFailure(ctx, inv, orchestrateOther(
				goerrors.Wrap(err, goerrors.CategoryExternal, "transport call failed").
					WithTextCode(ClientErrorDispatch),
			))
		}
		return
	}
	inv.ictx.SetResponse(response)
	if err := inv.ictx.EnterBeforeDeserializationPhase(); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}

	if s.runHalt(ctx, HookReadAfterTransmit, inv) {
		return
	}
	if s.runHalt(ctx, HookModifyBeforeDeserialization, inv) {
		return
	}
	if s.runHalt(ctx, HookReadBeforeDeserialization, inv) {
		return
	}

	if err := inv.ictx.EnterDeserializationPhase(); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}
	s.deserialize(ctx, inv)
	if err := inv.ictx.EnterAfterDeserializationPhase(); s.recordFailure(ctx, inv, orchestrateOther(err)) {
		return
	}

	s.runHalt(ctx, HookReadAfterDeserialization, inv)
}

// deserialize parses the response, recording either the output or the
// failure on the context. Either way the attempt proceeds to the
// after-deserialization hooks.
func (s *Service) deserialize(ctx context.Context, inv *invocation) {
	response := inv.ictx.Response()

	output, handled, err := inv.req.Deserializer.DeserializeStreaming(response)
	if err == nil && !handled {
		if response.Body != nil {
			if bufferErr := response.Body.Buffer(); bufferErr != nil {
				err = goerrors.Wrap(bufferErr, goerrors.CategoryExternal, "response body read failed").
					WithTextCode(ClientErrorResponse)
			}
		}
		if err == nil {
			output, err = inv.req.Deserializer.DeserializeNonstreaming(response)
		}
	}

	if err != nil {
		var serviceErr *ServiceError
		if errors.As(err, &serviceErr) {
			s.recordFailure(ctx, inv, orchestrateService(serviceErr))
		} else {
			s.recordFailure(ctx, inv, orchestrateOther(err))
		}
		return
	}
	inv.ictx.SetOutput(output)
}

func (s *Service) finallyAttempt(ctx context.Context, inv *invocation) {
	s.runContinue(ctx, HookModifyBeforeAttemptCompletion, inv)
	s.runContinue(ctx, HookReadAfterAttempt, inv)
}

func (s *Service) finallyOp(ctx context.Context, inv *invocation) {
	s.runContinue(ctx, HookModifyBeforeCompletion, inv)
	s.runContinue(ctx, HookReadAfterExecution, inv)
}

// finalize maps the terminal context state onto the caller-visible result.
func (s *Service) finalize(req OperationRequest, inv *invocation) (Output, *OperationError) {
	if output, ok := inv.ictx.Output(); ok {
		return output, nil
	}

	err := inv.ictx.Err()
	if err == nil {
		// A stop point leaves the context unresolved on purpose.
		return nil, nil
	}

	opErr := &OperationError{
		Service:   s.config.ServiceName,
		Operation: req.Operation,
		Attempts:  inv.attempts(),
		Kind:      s.classifyFailure(inv, err),
		Cause:     unwrapOrchestrator(err),
	}
	var interceptorErr *InterceptorError
	if errors.As(err, &interceptorErr) {
		opErr.Hook = interceptorErr.Hook.String()
	}
	if opErr.Kind == FailureResponse || opErr.Kind == FailureService {
		opErr.Response = inv.ictx.Response()
	}
	return nil, opErr
}

func (s *Service) classifyFailure(inv *invocation, err error) FailureKind {
	var orchErr *orchestratorError
	if errors.As(err, &orchErr) {
		switch orchErr.kind {
		case errKindTimeout:
			return FailureTimeout
		case errKindService:
			return FailureService
		case errKindConnector:
			return FailureDispatch
		}
	}
	switch phase := inv.ictx.Phase(); {
	case phase <= PhaseSerialization:
		return FailureConstruction
	case phase <= PhaseTransmit:
		return FailureDispatch
	default:
		return FailureResponse
	}
}

func unwrapOrchestrator(err error) error {
	var orchErr *orchestratorError
	if errors.As(err, &orchErr) {
		return orchErr.err
	}
	return err
}

func isTimeoutFailure(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}
