package schema

import (
	"fmt"
	"reflect"

	"github.com/clockworklabs/sszunion/pkg/union"
)

// Compile builds one registry per union in f and returns them as a catalog.
func Compile(f *File) (*union.Catalog, error) {
	catalog, err := union.NewCatalog()
	if err != nil {
		return nil, err
	}
	for _, u := range f.Unions {
		reg, err := CompileUnion(u)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(reg); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// CompileUnion builds the registry for u. Each variant's Go type is a
// single-field struct whose field is named after the variant, so variants
// that share an element shape still have distinct types.
func CompileUnion(u Union) (*union.Registry, error) {
	variants := make([]union.Variant, len(u.Variants))
	for i, v := range u.Variants {
		s, err := v.Shape()
		if err != nil {
			return nil, fmt.Errorf("union %s: %w", u.Name, err)
		}
		typ := reflect.StructOf([]reflect.StructField{{
			Name: v.Name,
			Type: s.Type,
			Tag:  reflect.StructTag(fmt.Sprintf(`json:"%s"`, v.Name)),
		}})
		variants[i] = union.NewVariant(v.Name, typ, structCodec{typ: typ, elem: s.codec(v.Max)})
	}
	return union.NewRegistry(u.Name, variants...)
}

// ParseValue parses text as the payload of the named variant of reg.
func ParseValue(reg *union.Registry, variant, text string) (union.Value, error) {
	v, _, ok := reg.VariantNamed(variant)
	if !ok {
		return union.Value{}, fmt.Errorf("%w: %s has no variant %q", union.ErrUnregisteredVariant, reg.Name(), variant)
	}
	s, err := shapeOf(v.Type())
	if err != nil {
		return union.Value{}, err
	}
	elem, err := s.Parse(text)
	if err != nil {
		return union.Value{}, fmt.Errorf("%s.%s: %w", reg.Name(), variant, err)
	}
	payload := reflect.New(v.Type()).Elem()
	payload.Field(0).Set(reflect.ValueOf(elem))
	return reg.Wrap(payload.Interface())
}

// Payload returns the element value inside a payload built by CompileUnion.
func Payload(v union.Value) any {
	rv := reflect.ValueOf(v.Payload())
	if rv.Kind() != reflect.Struct || rv.NumField() != 1 {
		return v.Payload()
	}
	return rv.Field(0).Interface()
}

// shapeOf recovers the element shape from a compiled variant type.
func shapeOf(typ reflect.Type) (Shape, error) {
	if typ.Kind() != reflect.Struct || typ.NumField() != 1 {
		return Shape{}, fmt.Errorf("%w: %v was not compiled from a definition", ErrInvalidDefinition, typ)
	}
	elem := typ.Field(0).Type
	for name := range shapes {
		if s := shapes[name]; s.Type == elem {
			return s, nil
		}
	}
	for _, name := range listElems {
		if s, _ := LookupShape("list<" + name + ">"); s.Type == elem {
			return s, nil
		}
	}
	return Shape{}, fmt.Errorf("%w: no shape for %v", ErrInvalidDefinition, elem)
}

// structCodec encodes a single-field struct as its field.
type structCodec struct {
	typ  reflect.Type
	elem elemCodec
}

func (c structCodec) FixedSize() int { return c.elem.fixedSize() }

func (c structCodec) Size(payload any) int {
	return c.elem.size(reflect.ValueOf(payload).Field(0).Interface())
}

func (c structCodec) Append(dst []byte, payload any) ([]byte, error) {
	return c.elem.append(dst, reflect.ValueOf(payload).Field(0).Interface())
}

func (c structCodec) Decode(buf []byte) (any, error) {
	elem, err := c.elem.decode(buf)
	if err != nil {
		return nil, err
	}
	out := reflect.New(c.typ).Elem()
	out.Field(0).Set(reflect.ValueOf(elem))
	return out.Interface(), nil
}
