// Package schema reads union definition files and turns them into registries
// at run time. A definition lists each union kind and its variants in
// selector order:
//
//	package: messages
//	unions:
//	  - name: TestUnion
//	    variants:
//	      - name: MessageA
//	        type: uint32
//	      - name: MessageB
//	        type: bytes
//	        max: 1024
//
// The same file drives the code generator.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var ErrInvalidDefinition = errors.New("schema: invalid definition")

// File is a parsed definition file.
type File struct {
	Package string  `yaml:"package"`
	Unions  []Union `yaml:"unions"`
}

// Union defines one union kind.
type Union struct {
	Name string `yaml:"name"`
	// Base names the sealed interface the generator emits. It defaults to
	// Name + "Variant".
	Base     string    `yaml:"base,omitempty"`
	Doc      string    `yaml:"doc,omitempty"`
	Variants []Variant `yaml:"variants"`
}

// Variant defines one member of a union. Its position is its selector.
type Variant struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Max  int    `yaml:"max,omitempty"`
	Doc  string `yaml:"doc,omitempty"`
}

// BaseName returns the sealed interface name for u.
func (u Union) BaseName() string {
	if u.Base != "" {
		return u.Base
	}
	return u.Name + "Variant"
}

// Shape resolves the variant's element shape.
func (v Variant) Shape() (Shape, error) {
	s, ok := LookupShape(v.Type)
	if !ok {
		return Shape{}, fmt.Errorf("%w: variant %s: unknown type %q", ErrInvalidDefinition, v.Name, v.Type)
	}
	return s, nil
}

// Load reads and validates the definition file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a definition. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names, shapes and limits.
func (f *File) Validate() error {
	if !token.IsIdentifier(f.Package) {
		return fmt.Errorf("%w: package %q is not a Go identifier", ErrInvalidDefinition, f.Package)
	}
	if len(f.Unions) == 0 {
		return fmt.Errorf("%w: no unions", ErrInvalidDefinition)
	}

	// Generated identifiers share one package scope.
	seen := make(map[string]string)
	claim := func(name, what string) error {
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s %s collides with %s", ErrInvalidDefinition, what, name, prev)
		}
		seen[name] = what
		return nil
	}

	for _, u := range f.Unions {
		if !isExported(u.Name) {
			return fmt.Errorf("%w: union name %q must be an exported Go identifier", ErrInvalidDefinition, u.Name)
		}
		if !isExported(u.BaseName()) {
			return fmt.Errorf("%w: union %s: base %q must be an exported Go identifier", ErrInvalidDefinition, u.Name, u.BaseName())
		}
		if err := claim(u.Name, "union"); err != nil {
			return err
		}
		if err := claim(u.BaseName(), "base of "+u.Name); err != nil {
			return err
		}
		if err := claim(u.Name+"Registry", "registry of "+u.Name); err != nil {
			return err
		}
		if err := claim("Decode"+u.Name, "decoder of "+u.Name); err != nil {
			return err
		}
		if len(u.Variants) == 0 {
			return fmt.Errorf("%w: union %s has no variants", ErrInvalidDefinition, u.Name)
		}
		if len(u.Variants) > 256 {
			return fmt.Errorf("%w: union %s has %d variants, at most 256 fit a selector", ErrInvalidDefinition, u.Name, len(u.Variants))
		}
		for _, v := range u.Variants {
			if !isExported(v.Name) {
				return fmt.Errorf("%w: union %s: variant name %q must be an exported Go identifier", ErrInvalidDefinition, u.Name, v.Name)
			}
			if err := claim(v.Name, "variant of "+u.Name); err != nil {
				return err
			}
			for _, derived := range []string{
				"New" + u.Name + v.Name,
				u.Name + v.Name + "Selector",
				lowerFirst(u.Name) + v.Name + "Codec",
			} {
				if err := claim(derived, "name derived from "+u.Name+"."+v.Name); err != nil {
					return err
				}
			}
			s, err := v.Shape()
			if err != nil {
				return fmt.Errorf("union %s: %w", u.Name, err)
			}
			if v.Max < 0 {
				return fmt.Errorf("%w: union %s: variant %s: negative max", ErrInvalidDefinition, u.Name, v.Name)
			}
			if v.Max > 0 && s.Fixed > 0 {
				return fmt.Errorf("%w: union %s: variant %s: max applies to bytes and lists only", ErrInvalidDefinition, u.Name, v.Name)
			}
		}
	}
	return nil
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

func isExported(name string) bool {
	return token.IsIdentifier(name) && token.IsExported(name)
}
