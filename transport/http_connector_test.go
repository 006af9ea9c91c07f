package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-client-runtime/core"
)

func TestHTTPConnector_Call(t *testing.T) {
	var captured *http.Request
	var capturedBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		payload, _ := io.ReadAll(r.Body)
		capturedBody = string(payload)
		w.Header().Set("X-Request-Id", "req-123")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"thing-1"}`))
	}))
	defer server.Close()

	connector := NewHTTPConnector(server.Client())
	connector.DefaultHeaders["User-Agent"] = "client-runtime-test"

	resp, err := connector.Call(context.Background(), &core.Request{
		Method:  http.MethodPost,
		URL:     server.URL + "/v1/things?existing=1",
		Headers: map[string]string{"Content-Type": "application/json"},
		Query:   map[string]string{"page": "2"},
		Body:    core.NewBody([]byte(`{"name":"thing"}`)),
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if captured.Method != http.MethodPost || captured.URL.Path != "/v1/things" {
		t.Fatalf("unexpected request line: %s %s", captured.Method, captured.URL)
	}
	if captured.URL.Query().Get("existing") != "1" || captured.URL.Query().Get("page") != "2" {
		t.Fatalf("expected merged query, got %q", captured.URL.RawQuery)
	}
	if captured.Header.Get("User-Agent") != "client-runtime-test" {
		t.Fatal("expected default header applied")
	}
	if captured.Header.Get("Content-Type") != "application/json" {
		t.Fatal("expected request header applied")
	}
	if capturedBody != `{"name":"thing"}` {
		t.Fatalf("unexpected request body %q", capturedBody)
	}
	if resp.Headers["X-Request-Id"] != "req-123" {
		t.Fatalf("expected response headers flattened, got %v", resp.Headers)
	}

	reader, err := resp.Body.Reader()
	if err != nil {
		t.Fatalf("open response body: %v", err)
	}
	defer reader.Close()
	payload, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if string(payload) != `{"id":"thing-1"}` {
		t.Fatalf("unexpected response body %q", payload)
	}
	if _, ok := resp.Metadata["duration_ms"]; !ok {
		t.Fatal("expected duration metadata")
	}
}

func TestHTTPConnector_DefaultsMethodToGet(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer server.Close()

	connector := NewHTTPConnector(server.Client())
	resp, err := connector.Call(context.Background(), &core.Request{URL: server.URL})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if reader, readerErr := resp.Body.Reader(); readerErr == nil {
		reader.Close()
	}
	if method != http.MethodGet {
		t.Fatalf("expected GET, got %s", method)
	}
}

func TestHTTPConnector_ResponseBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	connector := NewHTTPConnector(server.Client())
	connector.MaxResponseBodyBytes = 16

	resp, err := connector.Call(context.Background(), &core.Request{URL: server.URL})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	reader, err := resp.Body.Reader()
	if err != nil {
		t.Fatalf("open response body: %v", err)
	}
	defer reader.Close()

	if _, err := io.ReadAll(reader); err == nil {
		t.Fatal("expected limit error while reading body")
	} else if !strings.Contains(err.Error(), "exceeds limit") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPConnector_ClassifiesTimeouts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	connector := NewHTTPConnector(&http.Client{Timeout: 20 * time.Millisecond})
	_, err := connector.Call(context.Background(), &core.Request{URL: server.URL})
	if err == nil {
		t.Fatal("expected timeout error")
	}

	var connectorErr *core.ConnectorError
	if !errors.As(err, &connectorErr) {
		t.Fatalf("expected *core.ConnectorError, got %T", err)
	}
	if connectorErr.Kind != core.ConnectorErrorTimeout {
		t.Fatalf("expected timeout kind, got %s", connectorErr.Kind)
	}
}

func TestHTTPConnector_ClassifiesConnectionFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	connector := NewHTTPConnector(nil)
	_, err := connector.Call(context.Background(), &core.Request{URL: target})
	if err == nil {
		t.Fatal("expected connection error")
	}

	var connectorErr *core.ConnectorError
	if !errors.As(err, &connectorErr) {
		t.Fatalf("expected *core.ConnectorError, got %T", err)
	}
	if connectorErr.Kind != core.ConnectorErrorIO {
		t.Fatalf("expected io kind, got %s", connectorErr.Kind)
	}
}

func TestHTTPConnector_RejectsMissingURL(t *testing.T) {
	connector := NewHTTPConnector(nil)
	_, err := connector.Call(context.Background(), &core.Request{})
	if err == nil {
		t.Fatal("expected error for missing url")
	}
	var connectorErr *core.ConnectorError
	if !errors.As(err, &connectorErr) || connectorErr.Kind != core.ConnectorErrorOther {
		t.Fatalf("unexpected error: %v", err)
	}
}
