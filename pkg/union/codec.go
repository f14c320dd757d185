package union

import (
	"fmt"
	"reflect"
)

// checkValue resolves the variant v encodes as and verifies that v is
// consistent with r.
func (r *Registry) checkValue(v Value) (Variant, error) {
	if v.payload == nil || isNilPointer(v.payload) {
		return Variant{}, fmt.Errorf("%w: %s value has no payload", ErrUnsupportedVariantPayload, r.name)
	}
	if v.registry != nil && v.registry != r {
		return Variant{}, fmt.Errorf("%w: value of %s encoded with %s", ErrUnsupportedVariantPayload, v.registry.name, r.name)
	}
	if int(v.selector) >= len(r.variants) {
		return Variant{}, fmt.Errorf("%w: selector 0x%02x out of range for %s", ErrUnsupportedVariantPayload, v.selector, r.name)
	}
	variant := r.variants[v.selector]
	if typ := reflect.TypeOf(v.payload); typ != variant.typ {
		return Variant{}, fmt.Errorf("%w: %s at selector 0x%02x of %s, want %s", ErrUnsupportedVariantPayload, typ, v.selector, r.name, variant.typ)
	}
	return variant, nil
}

// Size returns the encoded length of v: one selector byte plus the payload.
func (r *Registry) Size(v Value) (int, error) {
	variant, err := r.checkValue(v)
	if err != nil {
		return 0, err
	}
	return 1 + variant.codec.Size(v.payload), nil
}

// Append encodes v as its selector byte followed by the payload encoding and
// appends the result to dst.
func (r *Registry) Append(dst []byte, v Value) ([]byte, error) {
	variant, err := r.checkValue(v)
	if err != nil {
		return nil, err
	}
	dst = append(dst, v.selector)
	dst, err = variant.codec.Append(dst, v.payload)
	if err != nil {
		return nil, fmt.Errorf("union: encode %s.%s: %w", r.name, variant.name, err)
	}
	return dst, nil
}

// Encode returns the selector-prefixed encoding of v.
func (r *Registry) Encode(v Value) ([]byte, error) {
	n, err := r.Size(v)
	if err != nil {
		return nil, err
	}
	return r.Append(make([]byte, 0, n), v)
}

// EncodeTo writes the encoding of v to the start of dst and returns the
// number of bytes written.
func (r *Registry) EncodeTo(dst []byte, v Value) (int, error) {
	n, err := r.Size(v)
	if err != nil {
		return 0, err
	}
	if len(dst) < n {
		return 0, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrShortBuffer, r.name, n, len(dst))
	}
	out, err := r.Append(dst[:0:len(dst)], v)
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, fmt.Errorf("%w: %s wrote %d bytes, have %d", ErrShortBuffer, r.name, len(out), len(dst))
	}
	return len(out), nil
}

// Decode reads a selector byte, resolves it to a variant and decodes the
// remaining bytes with that variant's codec. Nothing is returned on failure.
func (r *Registry) Decode(buf []byte) (Value, error) {
	if len(buf) == 0 {
		return Value{}, fmt.Errorf("%w: %s needs a selector byte", ErrTruncatedInput, r.name)
	}
	sel := buf[0]
	variant, err := r.TypeFor(sel)
	if err != nil {
		return Value{}, err
	}
	payload, err := variant.codec.Decode(buf[1:])
	if err != nil {
		return Value{}, fmt.Errorf("union: decode %s.%s: %w", r.name, variant.name, err)
	}
	if payload == nil || isNilPointer(payload) {
		return Value{}, fmt.Errorf("%w: %s.%s codec returned no payload", ErrUnsupportedVariantPayload, r.name, variant.name)
	}
	return Value{registry: r, selector: sel, payload: payload}, nil
}
