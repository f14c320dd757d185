package ssz

import "encoding/binary"

// SSZ (Simple Serialize) element codec.
// Fixed-size scalars are little-endian with no tags or length prefixes.
// Variable-size values occupy the whole span they are given, so the caller
// (a container or a union) decides where they end.

// Codec is the type-directed element codec for values of T.
type Codec[T any] interface {
	// Size returns the number of bytes Append will emit for val.
	Size(val T) int

	// Append encodes val and appends the bytes to dst.
	Append(dst []byte, val T) ([]byte, error)

	// Decode decodes buf as a single value of T. The whole span is consumed.
	Decode(buf []byte) (T, error)
}

// FixedSizer is implemented by codecs whose encoded size does not depend on
// the value.
type FixedSizer interface {
	FixedSize() int
}

// IsFixedSize reports whether codec encodes every value in the same number of
// bytes, and that number. A FixedSize of 0 means variable.
func IsFixedSize(codec any) (int, bool) {
	fs, ok := codec.(FixedSizer)
	if !ok {
		return 0, false
	}
	n := fs.FixedSize()
	return n, n > 0
}

// Marshal encodes val with codec into a new slice sized up front.
func Marshal[T any](codec Codec[T], val T) ([]byte, error) {
	return codec.Append(make([]byte, 0, codec.Size(val)), val)
}

// Uint8Of encodes any type whose underlying type is uint8 as one byte.
type Uint8Of[T ~uint8] struct{}

// Uint16Of encodes any type whose underlying type is uint16 as two little-endian bytes.
type Uint16Of[T ~uint16] struct{}

// Uint32Of encodes any type whose underlying type is uint32 as four little-endian bytes.
type Uint32Of[T ~uint32] struct{}

// Uint64Of encodes any type whose underlying type is uint64 as eight little-endian bytes.
type Uint64Of[T ~uint64] struct{}

// BoolOf encodes any type whose underlying type is bool as 0x00 or 0x01.
type BoolOf[T ~bool] struct{}

type (
	Uint8Codec  = Uint8Of[uint8]
	Uint16Codec = Uint16Of[uint16]
	Uint32Codec = Uint32Of[uint32]
	Uint64Codec = Uint64Of[uint64]
	BoolCodec   = BoolOf[bool]
)

func (Uint8Of[T]) FixedSize() int { return 1 }
func (Uint8Of[T]) Size(T) int     { return 1 }

func (Uint8Of[T]) Append(dst []byte, val T) ([]byte, error) {
	return append(dst, byte(val)), nil
}

func (Uint8Of[T]) Decode(buf []byte) (T, error) {
	if err := checkFixed("uint8", buf, 1); err != nil {
		return 0, err
	}
	return T(buf[0]), nil
}

func (Uint16Of[T]) FixedSize() int { return 2 }
func (Uint16Of[T]) Size(T) int     { return 2 }

func (Uint16Of[T]) Append(dst []byte, val T) ([]byte, error) {
	return binary.LittleEndian.AppendUint16(dst, uint16(val)), nil
}

func (Uint16Of[T]) Decode(buf []byte) (T, error) {
	if err := checkFixed("uint16", buf, 2); err != nil {
		return 0, err
	}
	return T(binary.LittleEndian.Uint16(buf)), nil
}

func (Uint32Of[T]) FixedSize() int { return 4 }
func (Uint32Of[T]) Size(T) int     { return 4 }

func (Uint32Of[T]) Append(dst []byte, val T) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(dst, uint32(val)), nil
}

func (Uint32Of[T]) Decode(buf []byte) (T, error) {
	if err := checkFixed("uint32", buf, 4); err != nil {
		return 0, err
	}
	return T(binary.LittleEndian.Uint32(buf)), nil
}

func (Uint64Of[T]) FixedSize() int { return 8 }
func (Uint64Of[T]) Size(T) int     { return 8 }

func (Uint64Of[T]) Append(dst []byte, val T) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(dst, uint64(val)), nil
}

func (Uint64Of[T]) Decode(buf []byte) (T, error) {
	if err := checkFixed("uint64", buf, 8); err != nil {
		return 0, err
	}
	return T(binary.LittleEndian.Uint64(buf)), nil
}

func (BoolOf[T]) FixedSize() int { return 1 }
func (BoolOf[T]) Size(T) int     { return 1 }

func (BoolOf[T]) Append(dst []byte, val T) ([]byte, error) {
	if bool(val) {
		return append(dst, 0x01), nil
	}
	return append(dst, 0x00), nil
}

func (BoolOf[T]) Decode(buf []byte) (T, error) {
	if err := checkFixed("bool", buf, 1); err != nil {
		return false, err
	}
	switch buf[0] {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, &DecodingError{Type: "bool", Reason: "byte must be 0x00 or 0x01", Err: ErrInvalidBool}
	}
}
