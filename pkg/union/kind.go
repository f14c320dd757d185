package union

import (
	"fmt"
	"reflect"

	"github.com/clockworklabs/sszunion/pkg/ssz"
)

// Case declares one variant of a union whose variants all implement B.
type Case[B any] struct {
	variant Variant
	fits    bool
}

// Of declares variant V of a union over B, named after V.
func Of[B, V any](codec ssz.Codec[V]) Case[B] {
	return NamedOf[B, V](typeName[V](), codec)
}

// NamedOf declares variant V of a union over B with an explicit name.
func NamedOf[B, V any](name string, codec ssz.Codec[V]) Case[B] {
	var zero V
	_, fits := any(zero).(B)
	return Case[B]{variant: NamedVariant[V](name, codec), fits: fits}
}

// Kind is a union kind whose payloads are all B. It is the typed face of a
// Registry.
type Kind[B any] struct {
	registry *Registry
}

// Define builds a union kind from cases in declaration order. Every case's
// type must implement B.
func Define[B any](name string, cases ...Case[B]) (*Kind[B], error) {
	variants := make([]Variant, len(cases))
	for i, c := range cases {
		if !c.fits {
			return nil, fmt.Errorf("%w: %s: %v does not implement %v", ErrInvalidVariant, name, c.variant.typ, reflect.TypeFor[B]())
		}
		variants[i] = c.variant
	}
	reg, err := NewRegistry(name, variants...)
	if err != nil {
		return nil, err
	}
	return &Kind[B]{registry: reg}, nil
}

// MustDefine is like Define but panics on error.
func MustDefine[B any](name string, cases ...Case[B]) *Kind[B] {
	k, err := Define[B](name, cases...)
	if err != nil {
		panic(err)
	}
	return k
}

func (k *Kind[B]) Registry() *Registry { return k.registry }
func (k *Kind[B]) Name() string        { return k.registry.name }

// Wrap pairs payload with its selector.
func (k *Kind[B]) Wrap(payload B) (Union[B], error) {
	v, err := k.registry.Wrap(payload)
	if err != nil {
		return Union[B]{}, err
	}
	return Union[B]{value: v}, nil
}

// Encode returns the selector-prefixed encoding of u.
func (k *Kind[B]) Encode(u Union[B]) ([]byte, error) {
	return k.registry.Encode(u.value)
}

// Decode decodes a selector-prefixed union of this kind.
func (k *Kind[B]) Decode(buf []byte) (Union[B], error) {
	v, err := k.registry.Decode(buf)
	if err != nil {
		return Union[B]{}, err
	}
	if _, ok := v.payload.(B); !ok {
		return Union[B]{}, fmt.Errorf("%w: %T does not implement %v", ErrUnsupportedVariantPayload, v.payload, reflect.TypeFor[B]())
	}
	return Union[B]{value: v}, nil
}

// Constructor returns the constructor for variant V of k. The selector is
// resolved once, here, so the returned function cannot fail. A nil pointer
// payload yields the zero Union, which holds no variant.
func Constructor[B, V any](k *Kind[B]) (func(V) Union[B], error) {
	sel, err := k.registry.SelectorFor(reflect.TypeFor[V]())
	if err != nil {
		return nil, err
	}
	reg := k.registry
	return func(payload V) Union[B] {
		if isNilPointer(payload) {
			return Union[B]{}
		}
		return Union[B]{value: Value{registry: reg, selector: sel, payload: payload}}
	}, nil
}

// MustConstructor is like Constructor but panics if V is not a variant of k.
func MustConstructor[B, V any](k *Kind[B]) func(V) Union[B] {
	ctor, err := Constructor[B, V](k)
	if err != nil {
		panic(err)
	}
	return ctor
}

// Union is a typed union value of a Kind over B.
type Union[B any] struct {
	value Value
}

func (u Union[B]) Selector() byte { return u.value.selector }
func (u Union[B]) Value() Value   { return u.value }
func (u Union[B]) IsZero() bool   { return u.value.IsZero() }

// Payload returns the payload as B, or B's zero value for a zero Union.
func (u Union[B]) Payload() B {
	p, _ := u.value.payload.(B)
	return p
}

func (u Union[B]) Variant() (Variant, bool) { return u.value.Variant() }
func (u Union[B]) Equal(other Union[B]) bool {
	return u.value.Equal(other.value)
}
func (u Union[B]) String() string { return u.value.String() }

func (u Union[B]) MarshalJSON() ([]byte, error) { return u.value.MarshalJSON() }
