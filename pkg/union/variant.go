package union

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/clockworklabs/sszunion/pkg/ssz"
)

// AnyCodec is the type-erased element codec a Variant dispatches to. Payloads
// passed to Size and Append always have the variant's registered type.
type AnyCodec interface {
	Size(payload any) int
	Append(dst []byte, payload any) ([]byte, error)
	Decode(buf []byte) (any, error)
}

// Variant is one member of a union kind: a Go type, the name it is known by,
// and the element codec for its payload.
type Variant struct {
	name  string
	typ   reflect.Type
	codec AnyCodec
	equal func(a, b any) bool
	fixed int
}

// NewVariant declares a variant from a reflect.Type and a type-erased codec.
// It is the building block for variants whose types are only known at run
// time; VariantOf is the usual entry point.
func NewVariant(name string, typ reflect.Type, codec AnyCodec) Variant {
	fixed, _ := ssz.IsFixedSize(codec)
	return Variant{name: name, typ: typ, codec: codec, equal: defaultEqual, fixed: fixed}
}

// VariantOf declares a variant of type T named after T.
func VariantOf[T any](codec ssz.Codec[T]) Variant {
	return NamedVariant[T](typeName[T](), codec)
}

// NamedVariant declares a variant of type T with an explicit name.
func NamedVariant[T any](name string, codec ssz.Codec[T]) Variant {
	if codec == nil {
		return Variant{name: name, typ: reflect.TypeFor[T]()}
	}
	fixed, _ := ssz.IsFixedSize(codec)
	return Variant{
		name:  name,
		typ:   reflect.TypeFor[T](),
		codec: erased[T]{codec: codec},
		equal: equalOf[T](),
		fixed: fixed,
	}
}

// Name returns the variant's display name.
func (v Variant) Name() string { return v.name }

// Type returns the Go type that identifies the variant.
func (v Variant) Type() reflect.Type { return v.typ }

// FixedSize returns the payload size when every payload of this variant
// encodes to the same number of bytes.
func (v Variant) FixedSize() (int, bool) { return v.fixed, v.fixed > 0 }

// Equal reports whether two payloads of this variant are equal.
func (v Variant) Equal(a, b any) bool {
	if v.equal == nil {
		return defaultEqual(a, b)
	}
	return v.equal(a, b)
}

// erased adapts a typed element codec to AnyCodec.
type erased[T any] struct {
	codec ssz.Codec[T]
}

func (e erased[T]) Size(payload any) int {
	val, ok := payload.(T)
	if !ok {
		return 0
	}
	return e.codec.Size(val)
}

func (e erased[T]) Append(dst []byte, payload any) ([]byte, error) {
	val, ok := payload.(T)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not %s", ErrUnsupportedVariantPayload, payload, reflect.TypeFor[T]())
	}
	return e.codec.Append(dst, val)
}

func (e erased[T]) Decode(buf []byte) (any, error) {
	val, err := e.codec.Decode(buf)
	if err != nil {
		return nil, err
	}
	return val, nil
}

// FixedSize forwards the wrapped codec's fixed size.
func (e erased[T]) FixedSize() int {
	n, _ := ssz.IsFixedSize(e.codec)
	return n
}

type equaler[T any] interface {
	Equal(T) bool
}

func equalOf[T any]() func(a, b any) bool {
	return func(a, b any) bool {
		x, ok := a.(T)
		if !ok {
			return false
		}
		y, ok := b.(T)
		if !ok {
			return false
		}
		if eq, ok := any(x).(equaler[T]); ok {
			return eq.Equal(y)
		}
		return defaultEqual(x, y)
	}
}

// defaultEqual is reflect.DeepEqual except that nil and empty slices are
// equal, since both encode to an empty list. Structs are compared field by
// field so payloads that wrap a slice compare the same way.
func defaultEqual(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() {
		return ra.IsValid() == rb.IsValid()
	}
	if ra.Type() != rb.Type() {
		return false
	}
	return valuesEqual(ra, rb)
}

func valuesEqual(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Slice:
		if a.Len() != b.Len() {
			return false
		}
		if a.Type().Elem().Kind() == reflect.Uint8 {
			return bytes.Equal(a.Bytes(), b.Bytes())
		}
		for i := range a.Len() {
			if !valuesEqual(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := range a.Len() {
			if !valuesEqual(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := range a.NumField() {
			if !a.Type().Field(i).IsExported() {
				return reflect.DeepEqual(a.Interface(), b.Interface())
			}
			if !valuesEqual(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func isNilPointer(payload any) bool {
	rv := reflect.ValueOf(payload)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
