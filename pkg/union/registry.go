package union

import (
	"fmt"
	"reflect"
	"strings"
)

// MaxVariants is the number of distinct values a selector byte can carry.
const MaxVariants = 256

// Registry is the ordered selector to variant mapping of one union kind.
// The variant at index i owns selector i. A Registry never changes after
// NewRegistry returns.
type Registry struct {
	name      string
	variants  []Variant
	selectors map[reflect.Type]byte
}

// NewRegistry builds the registry for a union kind from its variants in
// declaration order.
func NewRegistry(name string, variants ...Variant) (*Registry, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRegistry, name)
	}
	if len(variants) > MaxVariants {
		return nil, fmt.Errorf("%w: %s declares %d", ErrTooManyVariants, name, len(variants))
	}

	r := &Registry{
		name:      name,
		variants:  make([]Variant, len(variants)),
		selectors: make(map[reflect.Type]byte, len(variants)),
	}
	names := make(map[string]int, len(variants))
	for i, v := range variants {
		switch {
		case v.typ == nil:
			return nil, fmt.Errorf("%w: %s: variant %d has no type", ErrInvalidVariant, name, i)
		case v.codec == nil:
			return nil, fmt.Errorf("%w: %s: variant %d (%s) has no codec", ErrInvalidVariant, name, i, v.typ)
		case v.typ.Kind() == reflect.Interface:
			return nil, fmt.Errorf("%w: %s: interface type %s cannot identify a variant", ErrInvalidVariant, name, v.typ)
		case v.name == "":
			return nil, fmt.Errorf("%w: %s: variant %d (%s) has no name", ErrInvalidVariant, name, i, v.typ)
		}
		if prev, ok := r.selectors[v.typ]; ok {
			return nil, fmt.Errorf("%w: %s: type %s at selectors 0x%02x and 0x%02x", ErrDuplicateVariant, name, v.typ, prev, i)
		}
		if prev, ok := names[v.name]; ok {
			return nil, fmt.Errorf("%w: %s: name %q at selectors 0x%02x and 0x%02x", ErrDuplicateVariant, name, v.name, prev, i)
		}
		r.selectors[v.typ] = byte(i)
		names[v.name] = i
		r.variants[i] = v
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is meant for
// package-level registry variables.
func MustRegistry(name string, variants ...Variant) *Registry {
	r, err := NewRegistry(name, variants...)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the union kind's name.
func (r *Registry) Name() string { return r.name }

// Len returns the number of variants.
func (r *Registry) Len() int { return len(r.variants) }

// Variants returns the variants in selector order.
func (r *Registry) Variants() []Variant {
	out := make([]Variant, len(r.variants))
	copy(out, r.variants)
	return out
}

// SelectorFor returns the selector registered for typ.
func (r *Registry) SelectorFor(typ reflect.Type) (byte, error) {
	sel, ok := r.selectors[typ]
	if !ok {
		return 0, fmt.Errorf("%w: %v in %s", ErrUnregisteredVariant, typ, r.name)
	}
	return sel, nil
}

// SelectorOf returns the selector registered for payload's dynamic type.
func (r *Registry) SelectorOf(payload any) (byte, error) {
	return r.SelectorFor(reflect.TypeOf(payload))
}

// TypeFor returns the variant registered at selector.
func (r *Registry) TypeFor(selector byte) (Variant, error) {
	if int(selector) >= len(r.variants) {
		return Variant{}, fmt.Errorf("%w: 0x%02x in %s (%d variants)", ErrUnknownSelector, selector, r.name, len(r.variants))
	}
	return r.variants[selector], nil
}

// VariantNamed returns the variant with the given display name.
func (r *Registry) VariantNamed(name string) (Variant, byte, bool) {
	for i, v := range r.variants {
		if v.name == name {
			return v, byte(i), true
		}
	}
	return Variant{}, 0, false
}

func (r *Registry) String() string {
	var sb strings.Builder
	sb.WriteString(r.name)
	sb.WriteByte('{')
	for i, v := range r.variants {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02x:%s", i, v.name)
	}
	sb.WriteByte('}')
	return sb.String()
}
