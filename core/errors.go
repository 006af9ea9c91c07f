package core

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ClientErrorBadInput     = "CLIENT_BAD_INPUT"
	ClientErrorConstruction = "CLIENT_CONSTRUCTION_FAILED"
	ClientErrorDispatch     = "CLIENT_DISPATCH_FAILED"
	ClientErrorResponse     = "CLIENT_RESPONSE_FAILED"
	ClientErrorService      = "CLIENT_SERVICE_ERROR"
	ClientErrorTimeout      = "CLIENT_TIMEOUT"
	ClientErrorInternal     = "CLIENT_INTERNAL_ERROR"
)

// FailureKind classifies where in the operation lifecycle a failure
// originated.
type FailureKind string

const (
	// FailureConstruction is a setup or configuration failure raised before
	// any attempt was possible. Never retried.
	FailureConstruction FailureKind = "construction"
	// FailureDispatch wraps a transport error or any failure raised before
	// a response existed.
	FailureDispatch FailureKind = "dispatch"
	// FailureResponse means a response was received but processing failed
	// before a parsed output existed. Carries the raw response.
	FailureResponse FailureKind = "response"
	// FailureService is a well-formed but semantically erroneous parsed
	// output.
	FailureService FailureKind = "service"
	// FailureTimeout means an operation- or attempt-level deadline fired.
	FailureTimeout FailureKind = "timeout"
)

// OperationError is the typed failure surfaced to callers of Invoke.
type OperationError struct {
	Service   string
	Operation string
	Kind      FailureKind
	Attempts  int
	// Hook names the interceptor hook point that raised the failure, when
	// interceptor-originated.
	Hook string
	// Response carries the raw response for response-kind failures.
	Response *Response
	Cause    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf(
		"core: operation %s/%s failed (%s): %v",
		e.Service, e.Operation, e.Kind, e.Cause,
	)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// ServiceError is a modeled error parsed from a well-formed response.
// Deserializers return it to distinguish semantic service failures from
// processing failures.
type ServiceError struct {
	Code     string
	Message  string
	Metadata map[string]any
}

func (e *ServiceError) Error() string {
	if strings.TrimSpace(e.Code) == "" {
		return fmt.Sprintf("core: service error: %s", e.Message)
	}
	return fmt.Sprintf("core: service error %s: %s", e.Code, e.Message)
}

// TimeoutError is the distinguished error produced when a configured
// operation or attempt deadline fires. It participates in retry
// classification like any other failure.
type TimeoutError struct {
	Scope   TimeoutScope
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("core: %s timed out after %s", e.Scope, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ConnectorErrorKind classifies transport-level failures for retry
// decisions.
type ConnectorErrorKind string

const (
	ConnectorErrorTimeout ConnectorErrorKind = "timeout"
	ConnectorErrorIO      ConnectorErrorKind = "io"
	ConnectorErrorOther   ConnectorErrorKind = "other"
)

// ConnectorError is the typed transport failure returned by connectors,
// kept separate from generic orchestration errors.
type ConnectorError struct {
	Kind  ConnectorErrorKind
	Cause error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("core: connector error (%s): %v", e.Kind, e.Cause)
}

func (e *ConnectorError) Unwrap() error {
	return e.Cause
}

// InterceptorError wraps a failure raised by an interceptor hook with the
// identity of the hook point that raised it.
type InterceptorError struct {
	Hook  HookID
	Cause error
}

func (e *InterceptorError) Error() string {
	return fmt.Sprintf("core: interceptor hook %s failed: %v", e.Hook, e.Cause)
}

func (e *InterceptorError) Unwrap() error {
	return e.Cause
}

// programmingError marks a driver wiring bug: fatal, never user
// recoverable, never retried.
func programmingError(message string) error {
	return goerrors.New("core: "+message, goerrors.CategoryInternal).
		WithTextCode(ClientErrorInternal)
}

// errorKind tags a recorded failure so finalization can map it onto the
// caller-visible taxonomy without inspecting the message.
type errorKind int

const (
	errKindOther errorKind = iota
	errKindInterceptor
	errKindConnector
	errKindTimeout
	errKindService
)

type orchestratorError struct {
	kind errorKind
	err  error
}

func (e *orchestratorError) Error() string {
	return e.err.Error()
}

func (e *orchestratorError) Unwrap() error {
	return e.err
}

func orchestrateOther(err error) error {
	if err == nil {
		return nil
	}
	return &orchestratorError{kind: errKindOther, err: err}
}

func orchestrateInterceptor(hook HookID, err error) *orchestratorError {
	return &orchestratorError{kind: errKindInterceptor, err: &InterceptorError{Hook: hook, Cause: err}}
}

func orchestrateConnector(err *ConnectorError) *orchestratorError {
	return &orchestratorError{kind: errKindConnector, err: err}
}

func orchestrateTimeout(err *TimeoutError) *orchestratorError {
	return &orchestratorError{kind: errKindTimeout, err: err}
}

func orchestrateService(err *ServiceError) *orchestratorError {
	return &orchestratorError{kind: errKindService, err: err}
}

type ErrorMapper func(err error) *goerrors.Error

func clientErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClientErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureClientErrorEnvelope(mapped)
}

func ensureClientErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = clientHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultClientTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultClientTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ClientErrorBadInput
	case goerrors.CategoryExternal:
		return ClientErrorDispatch
	case goerrors.CategoryOperation:
		return ClientErrorService
	default:
		return ClientErrorInternal
	}
}

func clientHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
