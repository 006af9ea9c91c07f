package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ EndpointResolver   = StaticEndpointResolver{}
	_ AuthSchemeResolver = AnonymousAuthResolver{}
	_ Signer             = BearerTokenSigner{}
	_ Interceptor        = InterceptorBase{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
