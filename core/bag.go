package core

import (
	"reflect"
	"strings"
)

// ConfigBag is an ordered stack of type-keyed value layers. Lookup returns
// the most recently pushed value of the requested type across all layers;
// writers push new layers or mutate the topmost layer. There is no deletion
// primitive.
type ConfigBag struct {
	layers []*BagLayer
}

// BagLayer is one scoped set of type-keyed values.
type BagLayer struct {
	name   string
	values map[reflect.Type]any
}

func NewConfigBag() *ConfigBag {
	bag := &ConfigBag{}
	bag.Push("base")
	return bag
}

// Push adds a new topmost layer and returns it.
func (b *ConfigBag) Push(name string) *BagLayer {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "layer"
	}
	layer := &BagLayer{name: name, values: map[reflect.Type]any{}}
	b.layers = append(b.layers, layer)
	return layer
}

// Top returns the topmost layer.
func (b *ConfigBag) Top() *BagLayer {
	if len(b.layers) == 0 {
		return b.Push("base")
	}
	return b.layers[len(b.layers)-1]
}

func (b *ConfigBag) load(key reflect.Type) (any, bool) {
	if b == nil {
		return nil, false
	}
	for i := len(b.layers) - 1; i >= 0; i-- {
		if value, ok := b.layers[i].values[key]; ok {
			return value, true
		}
	}
	return nil, false
}

func (l *BagLayer) Name() string {
	return l.name
}

func (l *BagLayer) put(key reflect.Type, value any) {
	l.values[key] = value
}

// bagKey computes the lookup key for T. Using the declared type rather than
// the dynamic type keeps interface-typed entries addressable by interface.
func bagKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// BagValue returns the most recently stored value of type T.
func BagValue[T any](bag *ConfigBag) (T, bool) {
	var zero T
	value, ok := bag.load(bagKey[T]())
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// BagPut stores value in the topmost layer, shadowing any value of the same
// type in lower layers.
func BagPut[T any](bag *ConfigBag, value T) {
	bag.Top().put(bagKey[T](), value)
}

// LayerPut stores value in a specific layer.
func LayerPut[T any](layer *BagLayer, value T) {
	layer.put(bagKey[T](), value)
}
