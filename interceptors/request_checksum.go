package interceptors

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-client-runtime/core"
)

// ChecksumAlgorithm selects which digest RequestChecksum computes.
type ChecksumAlgorithm string

const (
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	ChecksumCRC32  ChecksumAlgorithm = "crc32"
)

// RequestChecksum stamps a base64 digest of the request body onto a header
// before signing, so the signature covers the checksum. Stream-backed
// bodies cannot be digested without consuming them and fail the attempt.
type RequestChecksum struct {
	core.InterceptorBase

	Algorithm ChecksumAlgorithm
	// Header overrides the default X-Checksum-<algorithm> header name.
	Header string
}

func (c *RequestChecksum) ModifyBeforeSigning(_ context.Context, ictx *core.InterceptorContext, _ *core.RuntimeComponents, _ *core.ConfigBag) error {
	req := ictx.Request()
	if req == nil {
		return nil
	}

	algorithm := c.Algorithm
	if algorithm == "" {
		algorithm = ChecksumSHA256
	}

	var payload []byte
	if req.Body != nil {
		data, ok := req.Body.Bytes()
		if !ok {
			return goerrors.New("cannot checksum a streaming request body", goerrors.CategoryBadInput).
				WithTextCode(core.ClientErrorConstruction)
		}
		payload = data
	}

	digest, err := computeChecksum(algorithm, payload)
	if err != nil {
		return err
	}

	header := c.Header
	if header == "" {
		header = fmt.Sprintf("X-Checksum-%s", algorithm)
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers[header] = digest
	return nil
}

func computeChecksum(algorithm ChecksumAlgorithm, payload []byte) (string, error) {
	switch algorithm {
	case ChecksumSHA256:
		sum := sha256.Sum256(payload)
		return base64.StdEncoding.EncodeToString(sum[:]), nil
	case ChecksumCRC32:
		sum := crc32.ChecksumIEEE(payload)
		encoded := make([]byte, 4)
		binary.BigEndian.PutUint32(encoded, sum)
		return base64.StdEncoding.EncodeToString(encoded), nil
	}
	return "", goerrors.New(
		fmt.Sprintf("unsupported checksum algorithm %q", algorithm),
		goerrors.CategoryBadInput,
	).WithTextCode(core.ClientErrorConstruction)
}

var _ core.Interceptor = (*RequestChecksum)(nil)
