package interceptors

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-client-runtime/core"
)

// ResponseChecksum verifies a base64 digest header on each response against
// the received body before deserialization. Responses without the header
// pass through untouched, so it is safe to install against services that
// only checksum some operations.
type ResponseChecksum struct {
	core.InterceptorBase

	Algorithm ChecksumAlgorithm
	// Header overrides the default X-Checksum-<algorithm> header name.
	Header string
}

func (c *ResponseChecksum) ReadBeforeDeserialization(_ context.Context, ictx *core.InterceptorContext, _ *core.RuntimeComponents, _ *core.ConfigBag) error {
	resp := ictx.Response()
	if resp == nil || len(resp.Headers) == 0 {
		return nil
	}

	algorithm := c.Algorithm
	if algorithm == "" {
		algorithm = ChecksumSHA256
	}
	header := c.Header
	if header == "" {
		header = fmt.Sprintf("X-Checksum-%s", algorithm)
	}

	expected := ""
	for key, value := range resp.Headers {
		if strings.EqualFold(key, header) {
			expected = strings.TrimSpace(value)
			break
		}
	}
	if expected == "" {
		return nil
	}

	var payload []byte
	if resp.Body != nil {
		if err := resp.Body.Buffer(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryExternal, "buffering response body for checksum validation").
				WithTextCode(core.ClientErrorResponse)
		}
		if data, ok := resp.Body.Bytes(); ok {
			payload = data
		}
	}

	digest, err := computeChecksum(algorithm, payload)
	if err != nil {
		return err
	}
	if digest != expected {
		return goerrors.New("response body does not match its checksum header", goerrors.CategoryExternal).
			WithTextCode(core.ClientErrorResponse).
			WithMetadata(map[string]any{
				"header":   header,
				"expected": expected,
				"computed": digest,
			})
	}
	return nil
}

var _ core.Interceptor = (*ResponseChecksum)(nil)
