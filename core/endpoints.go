package core

import (
	"context"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// StaticEndpointResolver always resolves to the same endpoint. It covers
// the common single-host client and is the simplest resolver to compose
// under caching or discovery layers.
type StaticEndpointResolver struct {
	Endpoint Endpoint
}

func (r StaticEndpointResolver) ResolveEndpoint(_ context.Context, _ any, _ *ConfigBag) (Endpoint, error) {
	if strings.TrimSpace(r.Endpoint.URL) == "" {
		return Endpoint{}, goerrors.New("static endpoint resolver has no URL", goerrors.CategoryInternal).
			WithTextCode(ClientErrorInternal)
	}
	return r.Endpoint, nil
}

// orchestrateEndpoint resolves the attempt endpoint and merges it into the
// serialized request. The endpoint contributes scheme, host, and a path
// prefix; the request keeps its own path below that prefix, its query, and
// its headers, with endpoint headers filling in only where the request has
// no value yet.
func orchestrateEndpoint(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
	req := ictx.Request()
	if req == nil {
		return programmingError("endpoint resolution requires a serialized request")
	}

	if rc.EndpointResolver == nil {
		return goerrors.New("no endpoint resolver configured", goerrors.CategoryInternal).
			WithTextCode(ClientErrorInternal)
	}

	var params any
	if stored, ok := BagValue[EndpointParams](bag); ok {
		params = stored.Value
	}

	endpoint, err := rc.EndpointResolver.ResolveEndpoint(ctx, params, bag)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "endpoint resolution failed").
			WithTextCode(ClientErrorDispatch)
	}

	merged, err := mergeEndpointURL(endpoint.URL, req.URL)
	if err != nil {
		return err
	}
	req.URL = merged

	if len(endpoint.Headers) > 0 {
		if req.Headers == nil {
			req.Headers = map[string]string{}
		}
		for name, value := range endpoint.Headers {
			if _, exists := req.Headers[name]; !exists {
				req.Headers[name] = value
			}
		}
	}
	return nil
}

// mergeEndpointURL applies the endpoint's scheme, authority, and path
// prefix to the request target. The request target may be a bare path or a
// full URL whose path survives relative to the endpoint prefix.
func mergeEndpointURL(endpointURL, target string) (string, error) {
	base, err := url.Parse(endpointURL)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "invalid resolved endpoint URL").
			WithTextCode(ClientErrorInternal).
			WithMetadata(map[string]any{"endpoint": endpointURL})
	}
	if base.Scheme == "" || base.Host == "" {
		return "", goerrors.New("resolved endpoint URL must be absolute", goerrors.CategoryInternal).
			WithTextCode(ClientErrorInternal).
			WithMetadata(map[string]any{"endpoint": endpointURL})
	}

	req, err := url.Parse(target)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "invalid request target").
			WithTextCode(ClientErrorInternal).
			WithMetadata(map[string]any{"target": target})
	}

	out := *base
	out.Path = joinURLPath(base.Path, req.Path)
	out.RawQuery = req.RawQuery
	out.Fragment = ""
	return out.String(), nil
}

func joinURLPath(prefix, path string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if path == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return prefix + path
}
