package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service is a configured client runtime. It carries the client-scope
// collaborators and drives operations through the interceptor pipeline.
type Service struct {
	config             Config
	logger             Logger
	loggerProvider     LoggerProvider
	metricsRecorder    MetricsRecorder
	errorFactory       ErrorFactory
	errorMapper        ErrorMapper
	configProvider     ConfigProvider
	optionsResolver    OptionsResolver
	retryStrategy      RetryStrategy
	endpointResolver   EndpointResolver
	authSchemeResolver AuthSchemeResolver
	connector          Connector
	sleep              SleepFunc
	interceptors       []Interceptor
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("client-runtime", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("client-runtime"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = clientErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.authSchemeResolver == nil {
		builder.authSchemeResolver = AnonymousAuthResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Service{
		config:             finalConfig,
		logger:             logger,
		loggerProvider:     provider,
		metricsRecorder:    builder.metricsRecorder,
		errorFactory:       builder.errorFactory,
		errorMapper:        builder.errorMapper,
		configProvider:     builder.configProvider,
		optionsResolver:    builder.optionsResolver,
		retryStrategy:      builder.retryStrategy,
		endpointResolver:   builder.endpointResolver,
		authSchemeResolver: builder.authSchemeResolver,
		connector:          builder.connector,
		sleep:              builder.sleep,
		interceptors:       append([]Interceptor(nil), builder.interceptors...),
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

// runtimeComponents merges the service-level collaborators with the
// per-operation overrides into the component set for one invocation.
func (s *Service) runtimeComponents(req OperationRequest) *RuntimeComponents {
	rc := &RuntimeComponents{
		RetryStrategy:         s.retryStrategy,
		EndpointResolver:      s.endpointResolver,
		AuthSchemeResolver:    s.authSchemeResolver,
		Connector:             s.connector,
		Sleep:                 s.sleep,
		clientInterceptors:    append([]Interceptor(nil), s.interceptors...),
		operationInterceptors: append([]Interceptor(nil), req.Interceptors...),
	}
	if req.RetryStrategy != nil {
		rc.RetryStrategy = req.RetryStrategy
	}
	if req.EndpointResolver != nil {
		rc.EndpointResolver = req.EndpointResolver
	}
	if req.AuthSchemeResolver != nil {
		rc.AuthSchemeResolver = req.AuthSchemeResolver
	}
	if req.Connector != nil {
		rc.Connector = req.Connector
	}
	return rc
}
