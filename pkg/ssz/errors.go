package ssz

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedInput = errors.New("ssz: truncated input")
	ErrTrailingBytes  = errors.New("ssz: trailing bytes after fixed-size value")
	ErrTooLarge       = errors.New("ssz: payload too large")
	ErrInvalidBool    = errors.New("ssz: invalid bool byte")
	ErrInvalidLength  = errors.New("ssz: length is not a multiple of the element size")
)

// EncodingError represents an error during SSZ encoding
type EncodingError struct {
	Type   string
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ssz encoding error for %s: %s: %v", e.Type, e.Reason, e.Err)
	}
	return fmt.Sprintf("ssz encoding error for %s: %s", e.Type, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// DecodingError represents an error during SSZ decoding
type DecodingError struct {
	Type   string
	Reason string
	Err    error
}

func (d *DecodingError) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("ssz decoding error for %s: %s: %v", d.Type, d.Reason, d.Err)
	}
	return fmt.Sprintf("ssz decoding error for %s: %s", d.Type, d.Reason)
}

func (d *DecodingError) Unwrap() error {
	return d.Err
}

// checkFixed verifies that buf holds exactly size bytes for a fixed-size value.
func checkFixed(typeName string, buf []byte, size int) error {
	switch {
	case len(buf) < size:
		return &DecodingError{Type: typeName, Reason: fmt.Sprintf("need %d bytes, have %d", size, len(buf)), Err: ErrTruncatedInput}
	case len(buf) > size:
		return &DecodingError{Type: typeName, Reason: fmt.Sprintf("need %d bytes, have %d", size, len(buf)), Err: ErrTrailingBytes}
	}
	return nil
}
