package union

import "fmt"

// Value is one union value: a payload of exactly one registered variant and
// the selector that variant owns. The zero Value holds no union.
type Value struct {
	registry *Registry
	selector byte
	payload  any
}

// Wrap pairs payload with the selector registered for its dynamic type.
func (r *Registry) Wrap(payload any) (Value, error) {
	if payload == nil || isNilPointer(payload) {
		return Value{}, fmt.Errorf("%w: nil payload for %s", ErrUnregisteredVariant, r.name)
	}
	sel, err := r.SelectorOf(payload)
	if err != nil {
		return Value{}, err
	}
	return Value{registry: r, selector: sel, payload: payload}, nil
}

// MustWrap is like Wrap but panics if payload is not a registered variant.
func (r *Registry) MustWrap(payload any) Value {
	v, err := r.Wrap(payload)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) Selector() byte { return v.selector }
func (v Value) Payload() any { return v.payload }
func (v Value) Registry() *Registry { return v.registry }

// IsZero reports whether v holds no union.
func (v Value) IsZero() bool { return v.registry == nil && v.payload == nil }

// Variant returns the variant v's selector resolves to. It returns false for
// the zero Value.
func (v Value) Variant() (Variant, bool) {
	if v.registry == nil || int(v.selector) >= len(v.registry.variants) {
		return Variant{}, false
	}
	return v.registry.variants[v.selector], true
}

// Equal reports whether v and other carry the same selector and equal
// payloads.
func (v Value) Equal(other Value) bool {
	if v.IsZero() || other.IsZero() {
		return v.IsZero() && other.IsZero()
	}
	if v.selector != other.selector {
		return false
	}
	variant, ok := v.Variant()
	if !ok {
		return defaultEqual(v.payload, other.payload)
	}
	return variant.Equal(v.payload, other.payload)
}

func (v Value) String() string {
	if v.IsZero() {
		return "union.Value(nil)"
	}
	variant, ok := v.Variant()
	if !ok {
		return fmt.Sprintf("%s.?(0x%02x: %v)", v.registry.name, v.selector, v.payload)
	}
	return fmt.Sprintf("%s.%s(0x%02x: %v)", v.registry.name, variant.name, v.selector, v.payload)
}
