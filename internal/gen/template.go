package gen

import "text/template"

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by sszunion gen{{if .Source}} from {{.Source}}{{end}}. DO NOT EDIT.
{{- range .Header}}
// {{.}}
{{- end}}

package {{.Package}}

import (
	"fmt"

	"github.com/clockworklabs/sszunion/pkg/ssz"
	"github.com/clockworklabs/sszunion/pkg/union"
)
{{range .Unions}}{{$u := .}}
// {{.Base}} is implemented by every {{.Name}} variant.
type {{.Base}} interface {
	{{.Marker}}()
}
{{range .Variants}}
{{- range .Doc}}
// {{.}}
{{- end}}
type {{.Name}} {{.GoType}}

func ({{.Name}}) {{$u.Marker}}() {}
{{end}}
const (
{{- range .Variants}}
	{{.Const}} byte = {{.Selector}}
{{- end}}
)

var (
{{- range .Variants}}
	{{.CodecVar}} = {{.Codec}}
{{- end}}
)

// {{.Name}}Registry maps {{.Name}} selectors to variants.
var {{.Name}}Registry = union.MustRegistry("{{.Name}}",
{{- range .Variants}}
	union.NamedVariant[{{.Name}}]("{{.Name}}", {{.CodecVar}}),
{{- end}}
)
{{range .Doc}}
// {{.}}
{{- end}}
type {{.Name}} struct {
	selector byte
	value    {{.Base}}
}
{{range .Variants}}
// {{.Ctor}} returns a {{$u.Name}} holding v.
func {{.Ctor}}(v {{.Name}}) {{$u.Name}} {
	return {{$u.Name}}{selector: {{.Const}}, value: v}
}
{{end}}
// Selector returns the selector of the held variant.
func (u {{.Name}}) Selector() byte { return u.selector }

// Value returns the held variant, or nil for the zero {{.Name}}.
func (u {{.Name}}) Value() {{.Base}} { return u.value }

// Union returns u as a generic union value.
func (u {{.Name}}) Union() (union.Value, error) {
	return {{.Name}}Registry.Wrap(u.value)
}

// SizeSSZ returns the encoded size of u, or 0 for the zero {{.Name}}.
func (u *{{.Name}}) SizeSSZ() int {
	switch v := u.value.(type) {
{{- range .Variants}}
	case {{.Name}}:
		return 1 + {{.CodecVar}}.Size(v)
{{- end}}
	default:
		return 0
	}
}

// MarshalSSZ returns the selector-prefixed encoding of u.
func (u *{{.Name}}) MarshalSSZ() ([]byte, error) {
	return u.MarshalSSZTo(make([]byte, 0, u.SizeSSZ()))
}

// MarshalSSZTo appends the selector-prefixed encoding of u to dst.
func (u *{{.Name}}) MarshalSSZTo(dst []byte) ([]byte, error) {
	switch v := u.value.(type) {
{{- range .Variants}}
	case {{.Name}}:
		return {{.CodecVar}}.Append(append(dst, {{.Const}}), v)
{{- end}}
	default:
		return nil, fmt.Errorf("%w: {{.Name}} holds %T", union.ErrUnsupportedVariantPayload, u.value)
	}
}

// UnmarshalSSZ decodes buf into u.
func (u *{{.Name}}) UnmarshalSSZ(buf []byte) error {
	decoded, err := Decode{{.Name}}(buf)
	if err != nil {
		return err
	}
	*u = decoded
	return nil
}

// Decode{{.Name}} decodes a selector-prefixed {{.Name}}.
func Decode{{.Name}}(buf []byte) ({{.Name}}, error) {
	if len(buf) == 0 {
		return {{.Name}}{}, fmt.Errorf("%w: {{.Name}} needs a selector byte", union.ErrTruncatedInput)
	}
	switch buf[0] {
{{- range .Variants}}
	case {{.Const}}:
		v, err := {{.CodecVar}}.Decode(buf[1:])
		if err != nil {
			return {{$u.Name}}{}, fmt.Errorf("union: decode {{$u.Name}}.{{.Name}}: %w", err)
		}
		return {{.Ctor}}(v), nil
{{- end}}
	default:
		return {{.Name}}{}, fmt.Errorf("%w: 0x%02x in {{.Name}}", union.ErrUnknownSelector, buf[0])
	}
}
{{end}}`))
