package clientruntime

import "github.com/goliatone/go-client-runtime/core"

type Config = core.Config

type TimeoutConfig = core.TimeoutConfig

type Option = core.Option

type Service = core.Service

type OperationRequest = core.OperationRequest
type Input = core.Input
type Output = core.Output
type Request = core.Request
type Response = core.Response
type Body = core.Body
type Endpoint = core.Endpoint
type EndpointParams = core.EndpointParams
type RequestAttempts = core.RequestAttempts
type TimeoutOverrides = core.TimeoutOverrides
type AttemptOutcome = core.AttemptOutcome

type Interceptor = core.Interceptor
type InterceptorBase = core.InterceptorBase
type InterceptorContext = core.InterceptorContext
type ConfigBag = core.ConfigBag
type HookID = core.HookID
type Phase = core.Phase
type RewindResult = core.RewindResult
type StopPoint = core.StopPoint

type RuntimeComponents = core.RuntimeComponents

type RetryStrategy = core.RetryStrategy
type EndpointResolver = core.EndpointResolver
type AuthSchemeResolver = core.AuthSchemeResolver
type AuthScheme = core.AuthScheme
type Signer = core.Signer
type Connector = core.Connector
type RequestSerializer = core.RequestSerializer
type ResponseDeserializer = core.ResponseDeserializer
type MetricsRecorder = core.MetricsRecorder

type OperationError = core.OperationError
type ServiceError = core.ServiceError
type TimeoutError = core.TimeoutError
type ConnectorError = core.ConnectorError
type InterceptorError = core.InterceptorError
type FailureKind = core.FailureKind

const (
	StopPointNone           = core.StopPointNone
	StopPointBeforeTransmit = core.StopPointBeforeTransmit

	FailureConstruction = core.FailureConstruction
	FailureDispatch     = core.FailureDispatch
	FailureResponse     = core.FailureResponse
	FailureService      = core.FailureService
	FailureTimeout      = core.FailureTimeout
)

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithRetryStrategy      = core.WithRetryStrategy
	WithEndpointResolver   = core.WithEndpointResolver
	WithAuthSchemeResolver = core.WithAuthSchemeResolver
	WithConnector          = core.WithConnector
	WithSleep              = core.WithSleep
	WithInterceptor        = core.WithInterceptor
	WithInterceptors       = core.WithInterceptors

	NewBody          = core.NewBody
	NewStreamingBody = core.NewStreamingBody
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
