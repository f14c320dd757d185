package ssz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestScalarCodecs(t *testing.T) {
	t.Run("uint8", func(t *testing.T) {
		enc, err := Marshal[uint8](Uint8Codec{}, 0xAB)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xAB}, enc)
		got, err := Uint8Codec{}.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, uint8(0xAB), got)
	})

	t.Run("uint16", func(t *testing.T) {
		enc, err := Marshal[uint16](Uint16Codec{}, 0x0102)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x02, 0x01}, enc)
		got, err := Uint16Codec{}.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, uint16(0x0102), got)
	})

	t.Run("uint32", func(t *testing.T) {
		enc, err := Marshal[uint32](Uint32Codec{}, 42)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x2A, 0x00, 0x00, 0x00}, enc)
		got, err := Uint32Codec{}.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, uint32(42), got)
	})

	t.Run("uint64", func(t *testing.T) {
		enc, err := Marshal[uint64](Uint64Codec{}, 0x0102030405060708)
		require.NoError(t, err)
		assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, enc)
		got, err := Uint64Codec{}.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x0102030405060708), got)
	})

	t.Run("bool", func(t *testing.T) {
		enc, err := Marshal[bool](BoolCodec{}, true)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01}, enc)
		got, err := BoolCodec{}.Decode([]byte{0x00})
		require.NoError(t, err)
		assert.False(t, got)

		_, err = BoolCodec{}.Decode([]byte{0x02})
		assert.ErrorIs(t, err, ErrInvalidBool)
	})
}

func TestFixedSizeBounds(t *testing.T) {
	tests := []struct {
		name   string
		decode func([]byte) error
		size   int
	}{
		{"uint8", func(b []byte) error { _, err := Uint8Codec{}.Decode(b); return err }, 1},
		{"uint16", func(b []byte) error { _, err := Uint16Codec{}.Decode(b); return err }, 2},
		{"uint32", func(b []byte) error { _, err := Uint32Codec{}.Decode(b); return err }, 4},
		{"uint64", func(b []byte) error { _, err := Uint64Codec{}.Decode(b); return err }, 8},
		{"bytes32", func(b []byte) error { _, err := Bytes32Codec{}.Decode(b); return err }, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode(make([]byte, tt.size-1))
			assert.ErrorIs(t, err, ErrTruncatedInput)

			err = tt.decode(make([]byte, tt.size+1))
			assert.ErrorIs(t, err, ErrTrailingBytes)

			var decErr *DecodingError
			assert.True(t, errors.As(err, &decErr))
		})
	}

	_, err := Uint32Codec{}.Decode(nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestBytesCodec(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	enc, err := Marshal[[]byte](BytesCodec{}, src)
	require.NoError(t, err)
	assert.Equal(t, src, enc)

	got, err := BytesCodec{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	// The decoded slice must not alias the input.
	enc[0] = 0xFF
	assert.Equal(t, byte(1), got[0])

	empty, err := BytesCodec{}.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	limited := BytesCodec{Max: 3}
	_, err = limited.Append(nil, src)
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = limited.Decode(src)
	assert.ErrorIs(t, err, ErrTooLarge)
}

type root [32]byte

func TestBytes32Codec(t *testing.T) {
	var r root
	for i := range r {
		r[i] = byte(i)
	}
	codec := Bytes32Of[root]{}
	enc, err := Marshal[root](codec, r)
	require.NoError(t, err)
	assert.Len(t, enc, 32)
	assert.Equal(t, byte(31), enc[31])

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestListCodec(t *testing.T) {
	codec, err := List[uint16](Uint16Codec{}, 4)
	require.NoError(t, err)

	enc, err := Marshal[[]uint16](codec, []uint16{1, 0x0203})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x03, 0x02}, enc)

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 0x0203}, got)

	_, err = codec.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = codec.Decode(make([]byte, 10))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = codec.Append(nil, make([]uint16, 5))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = List[[]byte](BytesCodec{}, 0)
	assert.Error(t, err)
}

type reading struct {
	Value uint32
}

func TestAdapt(t *testing.T) {
	codec := Adapt(Uint32Codec{},
		func(v uint32) reading { return reading{Value: v} },
		func(r reading) uint32 { return r.Value },
	)

	n, ok := IsFixedSize(codec)
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	enc, err := Marshal[reading](codec, reading{Value: 7})
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, enc)

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, reading{Value: 7}, got)

	_, ok = IsFixedSize(Adapt(BytesCodec{}, func(b []byte) string { return string(b) }, func(s string) []byte { return []byte(s) }))
	assert.False(t, ok)
}

// point encodes itself as two little-endian uint16 values.
type point struct {
	X, Y uint16
}

func (p *point) SizeSSZ() int { return 4 }

func (p *point) MarshalSSZTo(dst []byte) ([]byte, error) {
	dst, _ = Uint16Codec{}.Append(dst, p.X)
	return Uint16Codec{}.Append(dst, p.Y)
}

func (p *point) UnmarshalSSZ(buf []byte) error {
	if err := checkFixed("point", buf, 4); err != nil {
		return err
	}
	p.X, _ = Uint16Codec{}.Decode(buf[:2])
	p.Y, _ = Uint16Codec{}.Decode(buf[2:])
	return nil
}

func TestSelfCodec(t *testing.T) {
	codec := Self[point, *point]{}
	enc, err := Marshal[point](codec, point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0}, enc)

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2}, got)

	_, err = codec.Decode(enc[:3])
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

type document struct {
	Name  string `cbor:"name"`
	Count int    `cbor:"count"`
}

func TestCBORCodec(t *testing.T) {
	codec := CBOR[document]{}
	doc := document{Name: "alpha", Count: 3}

	enc, err := Marshal[document](codec, doc)
	require.NoError(t, err)
	assert.Equal(t, codec.Size(doc), len(enc))

	again, err := Marshal[document](codec, doc)
	require.NoError(t, err)
	assert.Equal(t, enc, again, "encoding must be deterministic")

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = codec.Decode(nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = codec.Decode(append(enc, 0x00))
	assert.Error(t, err)
}

func TestProtoCodec(t *testing.T) {
	codec := ProtoOf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	msg := wrapperspb.String("hello")

	enc, err := Marshal[*wrapperspb.StringValue](codec, msg)
	require.NoError(t, err)
	assert.Equal(t, codec.Size(msg), len(enc))

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.True(t, proto.Equal(msg, got))

	_, err = codec.Decode([]byte{0xFF})
	var decErr *DecodingError
	assert.True(t, errors.As(err, &decErr))
}

func TestProtoWithoutConstructor(t *testing.T) {
	var codec Proto[*wrapperspb.StringValue]
	enc, err := Marshal[*wrapperspb.StringValue](codec, wrapperspb.String("hello"))
	require.NoError(t, err)

	var got *wrapperspb.StringValue
	require.NotPanics(t, func() { got, err = codec.Decode(enc) })
	assert.Nil(t, got)
	var decErr *DecodingError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "no message constructor", decErr.Reason)
}
