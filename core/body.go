package core

import (
	"bytes"
	"fmt"
	"io"
)

// Body carries a request or response payload. Byte-backed bodies are
// replayable and can be cloned for retry checkpoints; stream-backed bodies
// can be read once and cannot be cloned.
type Body struct {
	data       []byte
	stream     io.ReadCloser
	replayable bool
	consumed   bool
}

func NewBody(data []byte) *Body {
	return &Body{data: append([]byte(nil), data...), replayable: true}
}

func NewStreamingBody(stream io.ReadCloser) *Body {
	if stream == nil {
		return NewBody(nil)
	}
	return &Body{stream: stream}
}

func (b *Body) IsReplayable() bool {
	return b == nil || b.replayable
}

func (b *Body) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Bytes returns the buffered payload. The second return is false for a
// stream-backed body that has not been buffered yet.
func (b *Body) Bytes() ([]byte, bool) {
	if b == nil {
		return nil, true
	}
	if !b.replayable {
		return nil, false
	}
	return b.data, true
}

// Reader returns a fresh reader over the payload. A stream-backed body
// yields its underlying stream and is consumed by doing so.
func (b *Body) Reader() (io.ReadCloser, error) {
	if b == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	if b.replayable {
		return io.NopCloser(bytes.NewReader(b.data)), nil
	}
	if b.consumed {
		return nil, fmt.Errorf("core: streaming body already consumed")
	}
	b.consumed = true
	return b.stream, nil
}

// Buffer drains a stream-backed body into memory, after which the body is
// replayable. Buffering an already replayable body is a no-op.
func (b *Body) Buffer() error {
	if b == nil || b.replayable {
		return nil
	}
	if b.consumed {
		return fmt.Errorf("core: streaming body already consumed")
	}
	data, err := io.ReadAll(b.stream)
	closeErr := b.stream.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	b.data = data
	b.stream = nil
	b.replayable = true
	return nil
}

// TryClone returns an independent copy, or nil when the body is stream
// backed and cannot be replayed.
func (b *Body) TryClone() *Body {
	if b == nil {
		return nil
	}
	if !b.replayable {
		return nil
	}
	return NewBody(b.data)
}
