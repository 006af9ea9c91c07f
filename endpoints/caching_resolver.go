// Package endpoints provides endpoint resolvers for the client runtime,
// including a TTL cache for discovery-style resolvers whose lookups are
// expensive.
package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-client-runtime/core"
)

const defaultCacheTTL = 5 * time.Minute

// CachingResolver wraps another resolver and caches resolved endpoints by
// parameter key for a fixed TTL. Entries expire rather than invalidate, so
// a rotated endpoint is picked up within one TTL window.
type CachingResolver struct {
	inner core.EndpointResolver
	cache *bigcache.BigCache

	// Key derives the cache key from the endpoint params. The default
	// formats the params with %v; callers with non-comparable or verbose
	// params should set their own.
	Key func(params any) string
}

func NewCachingResolver(inner core.EndpointResolver, ttl time.Duration) (*CachingResolver, error) {
	if inner == nil {
		return nil, goerrors.New("caching resolver requires an inner resolver", goerrors.CategoryInternal).
			WithTextCode(core.ClientErrorInternal)
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "endpoint cache init failed").
			WithTextCode(core.ClientErrorInternal)
	}
	return &CachingResolver{inner: inner, cache: cache}, nil
}

func (r *CachingResolver) ResolveEndpoint(ctx context.Context, params any, bag *core.ConfigBag) (core.Endpoint, error) {
	key := r.cacheKey(params)

	if data, err := r.cache.Get(key); err == nil {
		var cached core.Endpoint
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			return cached, nil
		}
		// A corrupt entry falls through to a fresh resolution.
		_ = r.cache.Delete(key)
	} else if err != bigcache.ErrEntryNotFound {
		return core.Endpoint{}, goerrors.Wrap(err, goerrors.CategoryInternal, "endpoint cache read failed").
			WithTextCode(core.ClientErrorInternal)
	}

	endpoint, err := r.inner.ResolveEndpoint(ctx, params, bag)
	if err != nil {
		return core.Endpoint{}, err
	}

	if data, marshalErr := json.Marshal(endpoint); marshalErr == nil {
		// Failing to cache never fails the resolution.
		_ = r.cache.Set(key, data)
	}
	return endpoint, nil
}

// Invalidate drops the cached entry for the given params so the next
// resolution goes to the inner resolver.
func (r *CachingResolver) Invalidate(params any) error {
	if err := r.cache.Delete(r.cacheKey(params)); err != nil && err != bigcache.ErrEntryNotFound {
		return err
	}
	return nil
}

func (r *CachingResolver) cacheKey(params any) string {
	if r.Key != nil {
		return r.Key(params)
	}
	if params == nil {
		return "default"
	}
	return fmt.Sprintf("%v", params)
}

var _ core.EndpointResolver = (*CachingResolver)(nil)
