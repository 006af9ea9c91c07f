package core

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBody_ByteBackedIsReplayable(t *testing.T) {
	body := NewBody([]byte("payload"))
	if !body.IsReplayable() {
		t.Fatalf("expected byte body to be replayable")
	}

	first, err := body.Reader()
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	data, _ := io.ReadAll(first)
	if string(data) != "payload" {
		t.Fatalf("expected payload, got %q", data)
	}

	// A second reader starts from the beginning again.
	second, err := body.Reader()
	if err != nil {
		t.Fatalf("second reader: %v", err)
	}
	data, _ = io.ReadAll(second)
	if string(data) != "payload" {
		t.Fatalf("expected replay, got %q", data)
	}

	clone := body.TryClone()
	if clone == nil {
		t.Fatalf("expected clone of replayable body")
	}
	cloned, _ := clone.Bytes()
	if string(cloned) != "payload" {
		t.Fatalf("expected cloned payload, got %q", cloned)
	}
}

func TestBody_StreamingConsumedOnce(t *testing.T) {
	body := NewStreamingBody(io.NopCloser(strings.NewReader("streamed")))
	if body.IsReplayable() {
		t.Fatalf("expected streaming body to be non-replayable")
	}
	if body.TryClone() != nil {
		t.Fatalf("expected streaming body clone to fail")
	}

	reader, err := body.Reader()
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	data, _ := io.ReadAll(reader)
	if string(data) != "streamed" {
		t.Fatalf("expected streamed payload, got %q", data)
	}

	if _, err := body.Reader(); err == nil {
		t.Fatalf("expected second read of a stream to fail")
	}
}

func TestBody_BufferMakesStreamReplayable(t *testing.T) {
	body := NewStreamingBody(io.NopCloser(strings.NewReader("streamed")))
	if err := body.Buffer(); err != nil {
		t.Fatalf("buffer: %v", err)
	}
	if !body.IsReplayable() {
		t.Fatalf("expected buffered body to be replayable")
	}
	data, ok := body.Bytes()
	if !ok || string(data) != "streamed" {
		t.Fatalf("expected buffered payload, got %q (%v)", data, ok)
	}
	if body.TryClone() == nil {
		t.Fatalf("expected buffered body to clone")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }
func (failingReader) Close() error             { return nil }

func TestBody_BufferPropagatesReadErrors(t *testing.T) {
	body := NewStreamingBody(failingReader{})
	if err := body.Buffer(); err == nil {
		t.Fatalf("expected buffering to surface the read error")
	}
}
