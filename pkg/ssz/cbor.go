package ssz

import (
	"github.com/fxamacker/cbor/v2"
)

// cborEnc uses Core Deterministic Encoding (RFC 8949 §4.2) so that the same
// document always yields the same union bytes.
var cborEnc cbor.EncMode

var cborDec cbor.DecMode

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("ssz: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		// A payload is a closed document; trailing bytes already fail Unmarshal.
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("ssz: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR carries an opaque CBOR document as a variable-size payload. It is used
// for variants whose shape is owned by another layer.
type CBOR[T any] struct{}

// Size returns the encoded size, or 0 if val cannot be encoded; Append reports
// the error in that case.
func (CBOR[T]) Size(val T) int {
	b, err := cborEnc.Marshal(val)
	if err != nil {
		return 0
	}
	return len(b)
}

func (CBOR[T]) Append(dst []byte, val T) ([]byte, error) {
	b, err := cborEnc.Marshal(val)
	if err != nil {
		return nil, &EncodingError{Type: "cbor", Reason: "marshal failed", Err: err}
	}
	return append(dst, b...), nil
}

func (CBOR[T]) Decode(buf []byte) (T, error) {
	var val T
	if len(buf) == 0 {
		return val, &DecodingError{Type: "cbor", Reason: "empty document", Err: ErrTruncatedInput}
	}
	if err := cborDec.Unmarshal(buf, &val); err != nil {
		return val, &DecodingError{Type: "cbor", Reason: "unmarshal failed", Err: err}
	}
	return val, nil
}
