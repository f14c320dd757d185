package ssz

// Adapted is a codec for T built on a codec for U and a pair of conversions.
type Adapted[T, U any] struct {
	base Codec[U]
	to   func(U) T
	from func(T) U
}

// Adapt lets a domain type reuse an existing element codec, for example a
// message struct that is encoded as its single uint32 field.
func Adapt[T, U any](base Codec[U], to func(U) T, from func(T) U) Adapted[T, U] {
	return Adapted[T, U]{base: base, to: to, from: from}
}

func (a Adapted[T, U]) Size(val T) int { return a.base.Size(a.from(val)) }

func (a Adapted[T, U]) Append(dst []byte, val T) ([]byte, error) {
	return a.base.Append(dst, a.from(val))
}

func (a Adapted[T, U]) Decode(buf []byte) (T, error) {
	u, err := a.base.Decode(buf)
	if err != nil {
		var zero T
		return zero, err
	}
	return a.to(u), nil
}

// FixedSize reports the base codec's fixed size, or 0 when it is variable.
func (a Adapted[T, U]) FixedSize() int {
	n, _ := IsFixedSize(a.base)
	return n
}

// Marshaler is implemented by pointer types that encode themselves.
type Marshaler[T any] interface {
	*T
	SizeSSZ() int
	MarshalSSZTo(dst []byte) ([]byte, error)
	UnmarshalSSZ(buf []byte) error
}

// Self is the codec for types that implement Marshaler on their pointer.
type Self[T any, PT Marshaler[T]] struct{}

func (Self[T, PT]) Size(val T) int { return PT(&val).SizeSSZ() }

func (Self[T, PT]) Append(dst []byte, val T) ([]byte, error) {
	return PT(&val).MarshalSSZTo(dst)
}

func (Self[T, PT]) Decode(buf []byte) (T, error) {
	var val T
	if err := PT(&val).UnmarshalSSZ(buf); err != nil {
		return val, err
	}
	return val, nil
}
