package ssz

import "fmt"

// BytesOf encodes a variable-length byte list. The encoded form is the raw
// bytes with no length prefix; Max, when positive, caps the accepted length.
type BytesOf[T ~[]byte] struct {
	Max int
}

// BytesCodec is the byte-list codec for plain []byte.
type BytesCodec = BytesOf[[]byte]

func (c BytesOf[T]) Size(val T) int { return len(val) }

func (c BytesOf[T]) Append(dst []byte, val T) ([]byte, error) {
	if c.Max > 0 && len(val) > c.Max {
		return nil, &EncodingError{Type: "bytes", Reason: fmt.Sprintf("length %d exceeds limit %d", len(val), c.Max), Err: ErrTooLarge}
	}
	return append(dst, val...), nil
}

// Decode copies buf so the result never aliases the caller's buffer.
func (c BytesOf[T]) Decode(buf []byte) (T, error) {
	if c.Max > 0 && len(buf) > c.Max {
		return nil, &DecodingError{Type: "bytes", Reason: fmt.Sprintf("length %d exceeds limit %d", len(buf), c.Max), Err: ErrTooLarge}
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return T(out), nil
}

// Bytes32Of encodes a fixed 32-byte vector such as a hash or root.
type Bytes32Of[T ~[32]byte] struct{}

// Bytes32Codec is the vector codec for plain [32]byte.
type Bytes32Codec = Bytes32Of[[32]byte]

func (Bytes32Of[T]) FixedSize() int { return 32 }
func (Bytes32Of[T]) Size(T) int     { return 32 }

func (Bytes32Of[T]) Append(dst []byte, val T) ([]byte, error) {
	arr := [32]byte(val)
	return append(dst, arr[:]...), nil
}

func (Bytes32Of[T]) Decode(buf []byte) (T, error) {
	var out [32]byte
	if err := checkFixed("bytes32", buf, 32); err != nil {
		return T(out), err
	}
	copy(out[:], buf)
	return T(out), nil
}

// ListOf encodes a variable-length list of fixed-size elements by
// concatenating them. Max, when positive, caps the element count.
type ListOf[T any] struct {
	Elem Codec[T]
	Max  int
}

// List returns a list codec over elem. elem must be fixed-size.
func List[T any](elem Codec[T], limit int) (ListOf[T], error) {
	if _, ok := IsFixedSize(elem); !ok {
		return ListOf[T]{}, fmt.Errorf("ssz: list element codec %T is not fixed-size", elem)
	}
	return ListOf[T]{Elem: elem, Max: limit}, nil
}

func (c ListOf[T]) elemSize() int {
	n, _ := IsFixedSize(c.Elem)
	return n
}

func (c ListOf[T]) Size(val []T) int { return len(val) * c.elemSize() }

func (c ListOf[T]) Append(dst []byte, val []T) ([]byte, error) {
	if c.Max > 0 && len(val) > c.Max {
		return nil, &EncodingError{Type: "list", Reason: fmt.Sprintf("%d elements exceed limit %d", len(val), c.Max), Err: ErrTooLarge}
	}
	var err error
	for i, elem := range val {
		dst, err = c.Elem.Append(dst, elem)
		if err != nil {
			return nil, &EncodingError{Type: "list", Reason: fmt.Sprintf("failed to encode element %d", i), Err: err}
		}
	}
	return dst, nil
}

func (c ListOf[T]) Decode(buf []byte) ([]T, error) {
	size := c.elemSize()
	if size == 0 {
		return nil, &DecodingError{Type: "list", Reason: "element codec is not fixed-size"}
	}
	if len(buf)%size != 0 {
		return nil, &DecodingError{Type: "list", Reason: fmt.Sprintf("%d bytes for %d-byte elements", len(buf), size), Err: ErrInvalidLength}
	}
	count := len(buf) / size
	if c.Max > 0 && count > c.Max {
		return nil, &DecodingError{Type: "list", Reason: fmt.Sprintf("%d elements exceed limit %d", count, c.Max), Err: ErrTooLarge}
	}
	out := make([]T, count)
	for i := range out {
		elem, err := c.Elem.Decode(buf[i*size : (i+1)*size])
		if err != nil {
			return nil, &DecodingError{Type: "list", Reason: fmt.Sprintf("failed to decode element %d", i), Err: err}
		}
		out[i] = elem
	}
	return out, nil
}
