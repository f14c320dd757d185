// Package gen emits Go source for union definitions. The generated code
// dispatches with exhaustive type and selector switches and uses the union
// package only for its registry and error values.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clockworklabs/sszunion/internal/schema"
)

// DefaultSuffix is appended to the definition file's base name to name the
// generated file.
const DefaultSuffix = "_union.go"

// Options controls the generated file.
type Options struct {
	// Source names the definition file in the generated header.
	Source string
	// Header is extra comment text placed above the package clause.
	Header string
}

type unionView struct {
	Name     string
	Base     string
	Marker   string
	Doc      []string
	Variants []variantView
}

type variantView struct {
	Name     string
	Doc      []string
	GoType   string
	Selector string
	Const    string
	Codec    string
	CodecVar string
	Ctor     string
}

type fileView struct {
	Source  string
	Header  []string
	Package string
	Unions  []unionView
}

// Generate returns the gofmt-formatted source for f.
func Generate(f *schema.File, opts Options) ([]byte, error) {
	view := fileView{
		Source:  opts.Source,
		Header:  commentLines(opts.Header),
		Package: f.Package,
	}
	for _, u := range f.Unions {
		uv, err := buildUnion(u)
		if err != nil {
			return nil, err
		}
		view.Unions = append(view.Unions, uv)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("gen: execute template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format generated source: %w", err)
	}
	return src, nil
}

func buildUnion(u schema.Union) (unionView, error) {
	uv := unionView{
		Name:   u.Name,
		Base:   u.BaseName(),
		Marker: "is" + u.Name,
		Doc:    commentLines(u.Doc),
	}
	if len(uv.Doc) == 0 {
		uv.Doc = []string{fmt.Sprintf("%s holds exactly one of its variants.", u.Name)}
	}
	for i, v := range u.Variants {
		s, err := v.Shape()
		if err != nil {
			return unionView{}, fmt.Errorf("gen: union %s: %w", u.Name, err)
		}
		uv.Variants = append(uv.Variants, variantView{
			Name:     v.Name,
			Doc:      commentLines(v.Doc),
			GoType:   s.Go,
			Selector: fmt.Sprintf("0x%02x", i),
			Const:    u.Name + v.Name + "Selector",
			Codec:    codecExpr(v.Name, s, v.Max),
			CodecVar: lowerFirst(u.Name) + v.Name + "Codec",
			Ctor:     "New" + u.Name + v.Name,
		})
	}
	return uv, nil
}

// codecExpr returns the element codec expression for a variant named typ.
func codecExpr(typ string, s schema.Shape, limit int) string {
	maxField := ""
	if limit > 0 {
		maxField = fmt.Sprintf("Max: %d", limit)
	}
	if s.IsList() {
		elem := s.Elem()
		base := fmt.Sprintf("ssz.ListOf[%s]{Elem: ssz.%sCodec{}", elem.Go, upperFirst(elem.Name))
		if maxField != "" {
			base += ", " + maxField
		}
		base += "}"
		return fmt.Sprintf("ssz.Adapt(%s,\n\tfunc(v %s) %s { return %s(v) },\n\tfunc(v %s) %s { return %s(v) },\n)",
			base, s.Go, typ, typ, typ, s.Go, s.Go)
	}
	switch s.Name {
	case "uint8", "uint16", "uint32", "uint64", "bool":
		return fmt.Sprintf("ssz.%sOf[%s]{}", upperFirst(s.Name), typ)
	case "bytes":
		return fmt.Sprintf("ssz.BytesOf[%s]{%s}", typ, maxField)
	case "bytes32":
		return fmt.Sprintf("ssz.Bytes32Of[%s]{}", typ)
	}
	return ""
}

func commentLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
