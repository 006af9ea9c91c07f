// Package transport contains connectors that carry client runtime
// requests over a concrete protocol.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-client-runtime/core"
)

const defaultHTTPClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConnector transmits requests over HTTP. Transport failures come back
// as *core.ConnectorError so retry strategies can classify them.
type HTTPConnector struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewHTTPConnector(client HTTPDoer) *HTTPConnector {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPClientTimeout}
	}
	return &HTTPConnector{
		Client:               client,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (c *HTTPConnector) Call(ctx context.Context, req *core.Request) (*core.Response, error) {
	if c == nil || c.Client == nil {
		return nil, connectorError(core.ConnectorErrorOther,
			goerrors.New("transport: http connector requires an http client", goerrors.CategoryInternal))
	}
	if req == nil {
		return nil, connectorError(core.ConnectorErrorOther,
			goerrors.New("transport: request is required", goerrors.CategoryInternal))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	parsedURL, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return nil, connectorError(core.ConnectorErrorOther,
			goerrors.Wrap(err, goerrors.CategoryBadInput, "transport: invalid request url"))
	}
	if parsedURL.String() == "" {
		return nil, connectorError(core.ConnectorErrorOther,
			goerrors.New("transport: request url is required", goerrors.CategoryBadInput))
	}

	query := parsedURL.Query()
	for key, value := range req.Query {
		if strings.TrimSpace(key) == "" {
			continue
		}
		query.Set(strings.TrimSpace(key), value)
	}
	parsedURL.RawQuery = query.Encode()

	var bodyReader io.Reader
	if req.Body != nil {
		reader, err := req.Body.Reader()
		if err != nil {
			return nil, connectorError(core.ConnectorErrorOther,
				goerrors.Wrap(err, goerrors.CategoryInternal, "transport: request body unavailable"))
		}
		bodyReader = reader
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, parsedURL.String(), bodyReader)
	if err != nil {
		return nil, connectorError(core.ConnectorErrorOther,
			goerrors.Wrap(err, goerrors.CategoryBadInput, "transport: create http request"))
	}
	for key, value := range c.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), value)
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), value)
	}

	startedAt := time.Now().UTC()
	httpRes, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, connectorError(classifyTransportError(err),
			goerrors.Wrap(err, goerrors.CategoryExternal, "transport: execute http request"))
	}

	limit := c.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}

	return &core.Response{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       core.NewStreamingBody(newLimitedBody(httpRes.Body, limit)),
		Metadata: map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
		},
	}, nil
}

func connectorError(kind core.ConnectorErrorKind, cause error) error {
	return &core.ConnectorError{Kind: kind, Cause: cause}
}

func classifyTransportError(err error) core.ConnectorErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ConnectorErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return core.ConnectorErrorTimeout
		}
		return core.ConnectorErrorIO
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return core.ConnectorErrorIO
	}
	return core.ConnectorErrorOther
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			flat[key] = ""
			continue
		}
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

// limitedBody fails the read once the underlying stream exceeds the limit,
// so a misbehaving server cannot buffer unbounded data into memory.
type limitedBody struct {
	inner io.ReadCloser
	limit int64
	read  int64
}

func newLimitedBody(inner io.ReadCloser, limit int64) io.ReadCloser {
	return &limitedBody{inner: inner, limit: limit}
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.inner.Read(p)
	b.read += int64(n)
	if b.read > b.limit {
		return n, fmt.Errorf("transport: response body exceeds limit of %d bytes", b.limit)
	}
	return n, err
}

func (b *limitedBody) Close() error {
	return b.inner.Close()
}

var _ core.Connector = (*HTTPConnector)(nil)
