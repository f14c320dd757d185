package ssz

import (
	"google.golang.org/protobuf/proto"
)

// Proto carries a protobuf message as a variable-size payload. New allocates
// the empty message that Decode fills; a Proto without it cannot decode.
type Proto[M proto.Message] struct {
	New func() M
}

// ProtoOf returns the codec for messages allocated by newFn.
func ProtoOf[M proto.Message](newFn func() M) Proto[M] {
	return Proto[M]{New: newFn}
}

var protoMarshal = proto.MarshalOptions{Deterministic: true}

func (p Proto[M]) Size(val M) int { return protoMarshal.Size(val) }

func (p Proto[M]) Append(dst []byte, val M) ([]byte, error) {
	out, err := protoMarshal.MarshalAppend(dst, val)
	if err != nil {
		return nil, &EncodingError{Type: "proto", Reason: "marshal failed", Err: err}
	}
	return out, nil
}

func (p Proto[M]) Decode(buf []byte) (M, error) {
	if p.New == nil {
		var zero M
		return zero, &DecodingError{Type: "proto", Reason: "no message constructor"}
	}
	msg := p.New()
	if err := proto.Unmarshal(buf, msg); err != nil {
		return msg, &DecodingError{Type: "proto", Reason: "unmarshal failed", Err: err}
	}
	return msg, nil
}
