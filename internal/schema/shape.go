package schema

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/clockworklabs/sszunion/pkg/ssz"
)

// Shape is one element encoding a definition file can name.
type Shape struct {
	// Name is the spelling used in definition files.
	Name string
	// Go is the Go type the shape decodes to.
	Go string
	// Type is Go as a reflect.Type.
	Type reflect.Type
	// Fixed is the encoded size, or 0 for variable-size shapes.
	Fixed int
}

var shapes = map[string]Shape{
	"uint8":   {Name: "uint8", Go: "uint8", Type: reflect.TypeFor[uint8](), Fixed: 1},
	"uint16":  {Name: "uint16", Go: "uint16", Type: reflect.TypeFor[uint16](), Fixed: 2},
	"uint32":  {Name: "uint32", Go: "uint32", Type: reflect.TypeFor[uint32](), Fixed: 4},
	"uint64":  {Name: "uint64", Go: "uint64", Type: reflect.TypeFor[uint64](), Fixed: 8},
	"bool":    {Name: "bool", Go: "bool", Type: reflect.TypeFor[bool](), Fixed: 1},
	"bytes":   {Name: "bytes", Go: "[]byte", Type: reflect.TypeFor[[]byte]()},
	"bytes32": {Name: "bytes32", Go: "[32]byte", Type: reflect.TypeFor[[32]byte](), Fixed: 32},
}

// listElems are the shapes a list may hold. A list of uint8 is spelled bytes.
var listElems = []string{"uint16", "uint32", "uint64", "bool"}

// LookupShape returns the shape named name. Lists are spelled list<elem>.
func LookupShape(name string) (Shape, bool) {
	if elem, ok := listElem(name); ok {
		if !slices.Contains(listElems, elem) {
			return Shape{}, false
		}
		s := shapes[elem]
		return Shape{
			Name: name,
			Go:   "[]" + s.Go,
			Type: reflect.SliceOf(s.Type),
		}, true
	}
	s, ok := shapes[name]
	return s, ok
}

// IsList reports whether the shape is a list of fixed-size elements.
func (s Shape) IsList() bool {
	_, ok := listElem(s.Name)
	return ok
}

// Elem returns the element shape of a list shape.
func (s Shape) Elem() Shape {
	elem, _ := listElem(s.Name)
	return shapes[elem]
}

func listElem(name string) (string, bool) {
	if !strings.HasPrefix(name, "list<") || !strings.HasSuffix(name, ">") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, "list<"), ">"), true
}

// codec builds the type-erased element codec for s. limit caps byte and list
// lengths when positive.
func (s Shape) codec(limit int) elemCodec {
	if s.IsList() {
		switch s.Elem().Name {
		case "uint16":
			return dyn[[]uint16]{ssz.ListOf[uint16]{Elem: ssz.Uint16Codec{}, Max: limit}}
		case "uint32":
			return dyn[[]uint32]{ssz.ListOf[uint32]{Elem: ssz.Uint32Codec{}, Max: limit}}
		case "uint64":
			return dyn[[]uint64]{ssz.ListOf[uint64]{Elem: ssz.Uint64Codec{}, Max: limit}}
		case "bool":
			return dyn[[]bool]{ssz.ListOf[bool]{Elem: ssz.BoolCodec{}, Max: limit}}
		}
	}
	switch s.Name {
	case "uint8":
		return dyn[uint8]{ssz.Uint8Codec{}}
	case "uint16":
		return dyn[uint16]{ssz.Uint16Codec{}}
	case "uint32":
		return dyn[uint32]{ssz.Uint32Codec{}}
	case "uint64":
		return dyn[uint64]{ssz.Uint64Codec{}}
	case "bool":
		return dyn[bool]{ssz.BoolCodec{}}
	case "bytes":
		return dyn[[]byte]{ssz.BytesCodec{Max: limit}}
	case "bytes32":
		return dyn[[32]byte]{ssz.Bytes32Codec{}}
	}
	return nil
}

// Parse converts text into a value of the shape's Go type. Integers accept any
// strconv base prefix, bytes are hex, and list elements are comma-separated.
func (s Shape) Parse(text string) (any, error) {
	text = strings.TrimSpace(text)
	if s.IsList() {
		elem := s.Elem()
		out := reflect.MakeSlice(s.Type, 0, 0)
		if text == "" {
			return out.Interface(), nil
		}
		for i, part := range strings.Split(text, ",") {
			v, err := elem.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = reflect.Append(out, reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}

	switch s.Name {
	case "uint8", "uint16", "uint32", "uint64":
		n, err := strconv.ParseUint(text, 0, s.Fixed*8)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.Name, err)
		}
		return reflect.ValueOf(n).Convert(s.Type).Interface(), nil
	case "bool":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("parse bool: %w", err)
		}
		return b, nil
	case "bytes":
		return parseHex(text)
	case "bytes32":
		b, err := parseHex(text)
		if err != nil {
			return nil, err
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("parse bytes32: got %d bytes", len(b))
		}
		return [32]byte(b), nil
	}
	return nil, fmt.Errorf("unknown shape %q", s.Name)
}

func parseHex(text string) ([]byte, error) {
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return b, nil
}

// elemCodec is a shape's codec over untyped values.
type elemCodec interface {
	size(val any) int
	append(dst []byte, val any) ([]byte, error)
	decode(buf []byte) (any, error)
	fixedSize() int
}

type dyn[T any] struct {
	codec ssz.Codec[T]
}

func (d dyn[T]) size(val any) int { return d.codec.Size(val.(T)) }

func (d dyn[T]) append(dst []byte, val any) ([]byte, error) {
	return d.codec.Append(dst, val.(T))
}

func (d dyn[T]) decode(buf []byte) (any, error) {
	v, err := d.codec.Decode(buf)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d dyn[T]) fixedSize() int {
	n, _ := ssz.IsFixedSize(d.codec)
	return n
}
