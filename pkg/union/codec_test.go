package union

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockworklabs/sszunion/pkg/ssz"
)

func TestEncodeScenarios(t *testing.T) {
	reg := testRegistry(t)

	t.Run("fixed-size variant at selector 0", func(t *testing.T) {
		v, err := reg.Wrap(MessageA(42))
		require.NoError(t, err)
		assert.Equal(t, byte(0), v.Selector())

		enc, err := reg.Encode(v)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x2a, 0x00, 0x00, 0x00}, enc)

		got, err := reg.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, MessageA(42), got.Payload())
		assert.True(t, v.Equal(got))
	})

	t.Run("byte list at selector 1", func(t *testing.T) {
		v, err := reg.Wrap(MessageB{0x01, 0x02, 0x03, 0x04})
		require.NoError(t, err)
		assert.Equal(t, byte(1), v.Selector())

		enc, err := reg.Encode(v)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x01, 0x02, 0x03, 0x04}, enc)

		got, err := reg.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, MessageB{0x01, 0x02, 0x03, 0x04}, got.Payload())
	})

	t.Run("unknown selector", func(t *testing.T) {
		_, err := reg.Decode([]byte{0x02, 0x00})
		assert.ErrorIs(t, err, ErrUnknownSelector)
	})
}

func TestRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	payloads := []any{
		MessageA(0),
		MessageA(0xFFFFFFFF),
		MessageB{},
		MessageB{0xDE, 0xAD, 0xBE, 0xEF},
	}

	for _, p := range payloads {
		t.Run(fmt.Sprintf("%T/%v", p, p), func(t *testing.T) {
			v := reg.MustWrap(p)
			sel, err := reg.SelectorOf(p)
			require.NoError(t, err)
			assert.Equal(t, sel, v.Selector())

			size, err := reg.Size(v)
			require.NoError(t, err)

			enc, err := reg.Encode(v)
			require.NoError(t, err)
			assert.Len(t, enc, size)
			assert.Equal(t, sel, enc[0])

			got, err := reg.Decode(enc)
			require.NoError(t, err)
			assert.True(t, v.Equal(got), "want %v, got %v", v, got)
			assert.Same(t, reg, got.Registry())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Decode(nil)
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = reg.Decode([]byte{0x00})
	assert.ErrorIs(t, err, ErrTruncatedInput)

	_, err = reg.Decode([]byte{0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrTruncatedInput)
	var decErr *ssz.DecodingError
	assert.True(t, errors.As(err, &decErr))

	_, err = reg.Decode([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05})
	assert.ErrorIs(t, err, ssz.ErrTrailingBytes)

	// A byte list variant with nothing after the selector is an empty list.
	v, err := reg.Decode([]byte{0x01})
	require.NoError(t, err)
	assert.Empty(t, v.Payload())

	for sel := 2; sel < MaxVariants; sel++ {
		_, err := reg.Decode([]byte{byte(sel), 0x00, 0x00, 0x00, 0x00})
		assert.ErrorIs(t, err, ErrUnknownSelector)
	}
}

func TestDecodeDoesNotAlias(t *testing.T) {
	reg := testRegistry(t)
	buf := []byte{0x01, 0xAA, 0xBB}

	v, err := reg.Decode(buf)
	require.NoError(t, err)
	buf[1] = 0x00
	assert.Equal(t, MessageB{0xAA, 0xBB}, v.Payload())
}

func TestWrapRejects(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.Wrap(nil)
	assert.ErrorIs(t, err, ErrUnregisteredVariant)

	_, err = reg.Wrap(uint32(42))
	assert.ErrorIs(t, err, ErrUnregisteredVariant)

	_, err = reg.Wrap((*MessageA)(nil))
	assert.ErrorIs(t, err, ErrUnregisteredVariant)

	assert.Panics(t, func() { reg.MustWrap("text") })
}

func TestEncodeUnsupportedPayload(t *testing.T) {
	reg := testRegistry(t)
	other, err := NewRegistry("Other", VariantOf[MessageA](ssz.Uint32Of[MessageA]{}))
	require.NoError(t, err)

	tests := []struct {
		name  string
		value Value
	}{
		{"zero value", Value{}},
		{"selector out of range", Value{registry: reg, selector: 7, payload: MessageA(1)}},
		{"payload type mismatch", Value{registry: reg, selector: 1, payload: MessageA(1)}},
		{"foreign registry", other.MustWrap(MessageA(1))},
		{"nil pointer payload", Value{registry: reg, selector: 0, payload: (*MessageA)(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Encode(tt.value)
			assert.ErrorIs(t, err, ErrUnsupportedVariantPayload)

			_, err = reg.Append(nil, tt.value)
			assert.ErrorIs(t, err, ErrUnsupportedVariantPayload)

			_, err = reg.EncodeTo(make([]byte, 16), tt.value)
			assert.ErrorIs(t, err, ErrUnsupportedVariantPayload)
		})
	}
}

func TestEncodeElementError(t *testing.T) {
	reg, err := NewRegistry("Limited",
		VariantOf[MessageB](ssz.BytesOf[MessageB]{Max: 2}),
	)
	require.NoError(t, err)

	_, err = reg.Encode(reg.MustWrap(MessageB{1, 2, 3}))
	assert.ErrorIs(t, err, ssz.ErrTooLarge)

	_, err = reg.Decode([]byte{0x00, 1, 2, 3})
	assert.ErrorIs(t, err, ssz.ErrTooLarge)
}

func TestEncodeTo(t *testing.T) {
	reg := testRegistry(t)
	v := reg.MustWrap(MessageA(42))

	buf := make([]byte, 8)
	n, err := reg.EncodeTo(buf, v)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte{0x00, 0x2a, 0x00, 0x00, 0x00}, buf[:n])

	_, err = reg.EncodeTo(make([]byte, 4), v)
	assert.ErrorIs(t, err, ErrShortBuffer)

	prefix := []byte{0xFF}
	out, err := reg.Append(prefix, v)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00, 0x2a, 0x00, 0x00, 0x00}, out)
}

func TestValueAccessors(t *testing.T) {
	reg := testRegistry(t)
	v := reg.MustWrap(MessageB{1, 2})

	variant, ok := v.Variant()
	require.True(t, ok)
	assert.Equal(t, "MessageB", variant.Name())
	assert.Equal(t, "TestUnion.MessageB(0x01: [1 2])", v.String())
	assert.False(t, v.IsZero())

	var zero Value
	assert.True(t, zero.IsZero())
	_, ok = zero.Variant()
	assert.False(t, ok)
	assert.Equal(t, "union.Value(nil)", zero.String())
	assert.True(t, zero.Equal(Value{}))
	assert.False(t, zero.Equal(v))

	assert.True(t, reg.MustWrap(MessageB{}).Equal(reg.MustWrap(MessageB(nil))))
	assert.False(t, reg.MustWrap(MessageA(1)).Equal(reg.MustWrap(MessageA(2))))
	assert.False(t, reg.MustWrap(MessageA(1)).Equal(reg.MustWrap(MessageB{1})))
}

type version struct {
	Major, Minor uint16
}

func (v version) Equal(other version) bool { return v.Major == other.Major }

func TestValueEqualUsesEqualMethod(t *testing.T) {
	codec := ssz.Adapt(ssz.Uint32Codec{},
		func(u uint32) version { return version{Major: uint16(u >> 16), Minor: uint16(u)} },
		func(v version) uint32 { return uint32(v.Major)<<16 | uint32(v.Minor) },
	)
	reg := MustRegistry("Version", VariantOf[version](codec))

	a := reg.MustWrap(version{Major: 1, Minor: 2})
	b := reg.MustWrap(version{Major: 1, Minor: 9})
	assert.True(t, a.Equal(b))
}

type counts struct {
	Values []uint16
}

// Nil and empty lists encode identically, so a nil payload must equal its
// decoded form.
func TestRoundTripNilLists(t *testing.T) {
	list := ssz.ListOf[uint16]{Elem: ssz.Uint16Codec{}}
	reg := MustRegistry("Lists",
		VariantOf[[]uint16](list),
		VariantOf[counts](ssz.Adapt[counts, []uint16](list,
			func(v []uint16) counts { return counts{Values: v} },
			func(c counts) []uint16 { return c.Values },
		)),
		VariantOf[[][32]byte](ssz.ListOf[[32]byte]{Elem: ssz.Bytes32Codec{}}),
	)

	for _, p := range []any{[]uint16(nil), []uint16{}, counts{}, counts{Values: []uint16{}}, [][32]byte(nil)} {
		t.Run(fmt.Sprintf("%T/%#v", p, p), func(t *testing.T) {
			v := reg.MustWrap(p)
			enc, err := reg.Encode(v)
			require.NoError(t, err)
			assert.Len(t, enc, 1)

			got, err := reg.Decode(enc)
			require.NoError(t, err)
			assert.True(t, v.Equal(got), "want %v, got %v", v, got)
		})
	}

	a := reg.MustWrap([]uint16{1, 2})
	assert.False(t, a.Equal(reg.MustWrap([]uint16{1, 3})))
	assert.False(t, a.Equal(reg.MustWrap([]uint16(nil))))
	assert.False(t, reg.MustWrap(counts{Values: []uint16{1}}).Equal(reg.MustWrap(counts{})))
}

func TestValueJSON(t *testing.T) {
	reg := testRegistry(t)

	out, err := reg.MustWrap(MessageA(42)).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"TestUnion","selector":0,"variant":"MessageA","payload":42}`, string(out))

	out, err = reg.MustWrap(MessageB{1, 2, 3}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"TestUnion","selector":1,"variant":"MessageB","payload":"AQID"}`, string(out))

	out, err = Value{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestConcurrentDecode(t *testing.T) {
	reg := testRegistry(t)
	inputs := [][]byte{
		{0x00, 0x2a, 0x00, 0x00, 0x00},
		{0x01, 0x01, 0x02, 0x03, 0x04},
	}
	want := []Value{
		reg.MustWrap(MessageA(42)),
		reg.MustWrap(MessageB{1, 2, 3, 4}),
	}

	const workers = 32
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				idx := (w + i) % len(inputs)
				got, err := reg.Decode(inputs[idx])
				if err != nil {
					errs <- err
					return
				}
				if !got.Equal(want[idx]) {
					errs <- fmt.Errorf("worker %d: got %v, want %v", w, got, want[idx])
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
