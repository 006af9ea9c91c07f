package core

import (
	"testing"
	"time"
)

func TestConfigBag_LayeredLookup(t *testing.T) {
	bag := NewConfigBag()
	BagPut(bag, TimeoutOverrides{Attempt: time.Second})

	bag.Push("operation")
	if got, ok := BagValue[TimeoutOverrides](bag); !ok || got.Attempt != time.Second {
		t.Fatalf("expected lower layer value visible, got %v (%v)", got, ok)
	}

	BagPut(bag, TimeoutOverrides{Attempt: 2 * time.Second})
	if got, _ := BagValue[TimeoutOverrides](bag); got.Attempt != 2*time.Second {
		t.Fatalf("expected top layer to shadow, got %v", got)
	}
}

func TestConfigBag_MissingValue(t *testing.T) {
	bag := NewConfigBag()
	if _, ok := BagValue[RequestAttempts](bag); ok {
		t.Fatalf("expected missing value")
	}
}

func TestConfigBag_InterfaceKeys(t *testing.T) {
	bag := NewConfigBag()
	var strategy RetryStrategy = refusingStrategy{}
	BagPut(bag, strategy)

	got, ok := BagValue[RetryStrategy](bag)
	if !ok {
		t.Fatalf("expected interface-typed value to round trip")
	}
	if _, isRefusing := got.(refusingStrategy); !isRefusing {
		t.Fatalf("expected stored strategy back, got %T", got)
	}
}

func TestConfigBag_LayerPut(t *testing.T) {
	bag := NewConfigBag()
	client := bag.Push("client")
	LayerPut(client, RequestAttempts{Attempt: 1})
	bag.Push("operation")

	// Writing to a named lower layer keeps the value visible under newer
	// layers.
	if got, ok := BagValue[RequestAttempts](bag); !ok || got.Attempt != 1 {
		t.Fatalf("expected layer value visible, got %v (%v)", got, ok)
	}
	if bag.Top().Name() != "operation" {
		t.Fatalf("expected operation on top, got %s", bag.Top().Name())
	}
}
