package endpoints

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-client-runtime/core"
)

type countingResolver struct {
	calls     int
	endpoints []core.Endpoint
	err       error
}

func (r *countingResolver) ResolveEndpoint(context.Context, any, *core.ConfigBag) (core.Endpoint, error) {
	r.calls++
	if r.err != nil {
		return core.Endpoint{}, r.err
	}
	endpoint := r.endpoints[0]
	if len(r.endpoints) > 1 {
		r.endpoints = r.endpoints[1:]
	}
	return endpoint, nil
}

func TestNewCachingResolver_RequiresInner(t *testing.T) {
	if _, err := NewCachingResolver(nil, time.Minute); err == nil {
		t.Fatal("expected error for nil inner resolver")
	}
}

func TestCachingResolver_CachesByParams(t *testing.T) {
	inner := &countingResolver{endpoints: []core.Endpoint{{URL: "https://east.example.com"}}}
	resolver, err := NewCachingResolver(inner, time.Minute)
	if err != nil {
		t.Fatalf("new caching resolver: %v", err)
	}

	bag := core.NewConfigBag()
	first, err := resolver.ResolveEndpoint(context.Background(), "region=east", bag)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := resolver.ResolveEndpoint(context.Background(), "region=east", bag)
	if err != nil {
		t.Fatalf("resolve cached: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("expected a single inner resolution, got %d", inner.calls)
	}
	if first.URL != second.URL || second.URL != "https://east.example.com" {
		t.Fatalf("unexpected endpoints: %q / %q", first.URL, second.URL)
	}
}

func TestCachingResolver_DistinctParamsMiss(t *testing.T) {
	inner := &countingResolver{endpoints: []core.Endpoint{
		{URL: "https://east.example.com"},
		{URL: "https://west.example.com"},
	}}
	resolver, err := NewCachingResolver(inner, time.Minute)
	if err != nil {
		t.Fatalf("new caching resolver: %v", err)
	}

	bag := core.NewConfigBag()
	east, err := resolver.ResolveEndpoint(context.Background(), "region=east", bag)
	if err != nil {
		t.Fatalf("resolve east: %v", err)
	}
	west, err := resolver.ResolveEndpoint(context.Background(), "region=west", bag)
	if err != nil {
		t.Fatalf("resolve west: %v", err)
	}

	if inner.calls != 2 {
		t.Fatalf("expected two inner resolutions, got %d", inner.calls)
	}
	if east.URL == west.URL {
		t.Fatalf("expected distinct endpoints, both %q", east.URL)
	}
}

func TestCachingResolver_InvalidateForcesResolution(t *testing.T) {
	inner := &countingResolver{endpoints: []core.Endpoint{
		{URL: "https://old.example.com"},
		{URL: "https://new.example.com"},
	}}
	resolver, err := NewCachingResolver(inner, time.Minute)
	if err != nil {
		t.Fatalf("new caching resolver: %v", err)
	}

	bag := core.NewConfigBag()
	if _, err := resolver.ResolveEndpoint(context.Background(), nil, bag); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := resolver.Invalidate(nil); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	refreshed, err := resolver.ResolveEndpoint(context.Background(), nil, bag)
	if err != nil {
		t.Fatalf("resolve after invalidate: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected re-resolution, got %d calls", inner.calls)
	}
	if refreshed.URL != "https://new.example.com" {
		t.Fatalf("expected refreshed endpoint, got %q", refreshed.URL)
	}
}

func TestCachingResolver_InnerErrorNotCached(t *testing.T) {
	inner := &countingResolver{err: errors.New("discovery down")}
	resolver, err := NewCachingResolver(inner, time.Minute)
	if err != nil {
		t.Fatalf("new caching resolver: %v", err)
	}

	bag := core.NewConfigBag()
	if _, err := resolver.ResolveEndpoint(context.Background(), nil, bag); err == nil {
		t.Fatal("expected inner error surfaced")
	}

	inner.err = nil
	inner.endpoints = []core.Endpoint{{URL: "https://recovered.example.com"}}
	endpoint, err := resolver.ResolveEndpoint(context.Background(), nil, bag)
	if err != nil {
		t.Fatalf("resolve after recovery: %v", err)
	}
	if endpoint.URL != "https://recovered.example.com" {
		t.Fatalf("expected recovery resolution, got %q", endpoint.URL)
	}
	if inner.calls != 2 {
		t.Fatalf("expected both calls to hit the inner resolver, got %d", inner.calls)
	}
}

func TestCachingResolver_CustomKey(t *testing.T) {
	inner := &countingResolver{endpoints: []core.Endpoint{{URL: "https://shared.example.com"}}}
	resolver, err := NewCachingResolver(inner, time.Minute)
	if err != nil {
		t.Fatalf("new caching resolver: %v", err)
	}
	resolver.Key = func(any) string { return "shared" }

	bag := core.NewConfigBag()
	if _, err := resolver.ResolveEndpoint(context.Background(), "a", bag); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := resolver.ResolveEndpoint(context.Background(), "b", bag); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected shared key to collapse lookups, got %d calls", inner.calls)
	}
}
