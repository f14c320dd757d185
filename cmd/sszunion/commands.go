package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/clockworklabs/sszunion/internal/gen"
	"github.com/clockworklabs/sszunion/internal/schema"
	"github.com/clockworklabs/sszunion/pkg/envelope"
	"github.com/clockworklabs/sszunion/pkg/union"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newFlagSet(env *environment, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("sszunion "+name, pflag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

// parseFlags reports done when help was requested.
func parseFlags(fs *pflag.FlagSet, args []string) (done bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, fmt.Errorf("%w: %v", errUsage, err)
	}
	return false, nil
}

func runGen(env *environment, args []string) error {
	var defs, out string
	fs := newFlagSet(env, "gen")
	fs.StringVarP(&defs, "defs", "d", "", "union definition file (YAML)")
	fs.StringVarP(&out, "out", "o", "", "output file, or - for stdout (default: <defs base>"+env.cfg.Gen.Suffix+")")
	header := fs.String("header", env.cfg.Gen.Header, "comment placed above the package clause")
	if done, err := parseFlags(fs, args); done || err != nil {
		return err
	}
	if defs == "" && fs.NArg() == 1 {
		defs = fs.Arg(0)
	}
	if defs == "" {
		return fmt.Errorf("%w: gen needs a definition file", errUsage)
	}

	f, err := schema.Load(defs)
	if err != nil {
		return err
	}
	src, err := gen.Generate(f, gen.Options{Source: filepath.Base(defs), Header: *header})
	if err != nil {
		return err
	}

	switch out {
	case "-":
		_, err = env.stdout.Write(src)
		return err
	case "":
		out = strings.TrimSuffix(defs, filepath.Ext(defs)) + env.cfg.Gen.Suffix
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	env.logger.Info("generated unions",
		zap.String("defs", defs),
		zap.String("out", out),
		zap.Int("unions", len(f.Unions)))
	return nil
}

// decodedValue is the JSON form printed by decode. Definition-compiled
// payloads are unwrapped to their element value.
type decodedValue struct {
	Kind     string `json:"kind"`
	Selector uint8  `json:"selector"`
	Variant  string `json:"variant"`
	Size     int    `json:"size"`
	Payload  any    `json:"payload"`
}

func runDecode(env *environment, args []string) error {
	var defs []string
	var open bool
	fs := newFlagSet(env, "decode")
	fs.StringSliceVarP(&defs, "defs", "d", nil, "union definition files (repeatable)")
	fs.BoolVar(&open, "open", false, "input is an envelope frame wrapping the value")
	maxSize := fs.Int("max-size", env.cfg.Decode.MaxEnvelopeSize, "largest decompressed envelope accepted by --open")
	if done, err := parseFlags(fs, args); done || err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%w: decode needs a kind and a hex value", errUsage)
	}
	kind := fs.Arg(0)

	buf, err := parseHex(strings.Join(fs.Args()[1:], ""))
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(defs)
	if err != nil {
		return err
	}

	if open {
		frame, err := envelope.Kind.Decode(buf)
		if err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}
		if buf, err = envelope.OpenLimit(frame, *maxSize); err != nil {
			return err
		}
		env.logger.Debug("opened envelope",
			zap.Stringer("algorithm", frame.Payload().Algorithm()),
			zap.Int("size", len(buf)))
	}

	v, err := catalog.Decode(kind, buf)
	if err != nil {
		return err
	}
	variant, _ := v.Variant()
	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(decodedValue{
		Kind:     kind,
		Selector: v.Selector(),
		Variant:  variant.Name(),
		Size:     len(buf),
		Payload:  schema.Payload(v),
	})
}

func runEncode(env *environment, args []string) error {
	var defs []string
	var kind, variant, seal string
	fs := newFlagSet(env, "encode")
	fs.StringSliceVarP(&defs, "defs", "d", nil, "union definition files (repeatable)")
	fs.StringVarP(&kind, "kind", "k", "", "union kind")
	fs.StringVarP(&variant, "variant", "v", "", "variant name")
	fs.StringVar(&seal, "seal", "", "wrap the encoding in an envelope frame: none, brotli, gzip, zstd, lz4")
	if done, err := parseFlags(fs, args); done || err != nil {
		return err
	}
	if kind == "" || variant == "" || fs.NArg() != 1 {
		return fmt.Errorf("%w: encode needs --kind, --variant and one value", errUsage)
	}

	catalog, err := loadCatalog(defs)
	if err != nil {
		return err
	}
	reg, ok := catalog.Lookup(kind)
	if !ok {
		return fmt.Errorf("%w: %s", union.ErrUnknownKind, kind)
	}
	v, err := schema.ParseValue(reg, variant, fs.Arg(0))
	if err != nil {
		return err
	}
	out, err := reg.Encode(v)
	if err != nil {
		return err
	}

	if seal != "" {
		alg, err := envelope.ParseAlgorithm(seal)
		if err != nil {
			return err
		}
		if out, err = envelope.Marshal(alg, out); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(env.stdout, hex.EncodeToString(out))
	return err
}

func runList(env *environment, args []string) error {
	var defs []string
	fs := newFlagSet(env, "list")
	fs.StringSliceVarP(&defs, "defs", "d", nil, "union definition files (repeatable)")
	if done, err := parseFlags(fs, args); done || err != nil {
		return err
	}
	defs = append(defs, fs.Args()...)

	catalog, err := loadCatalog(defs)
	if err != nil {
		return err
	}
	for _, name := range catalog.Names() {
		reg, _ := catalog.Lookup(name)
		fmt.Fprintf(env.stdout, "%s (%d variants)\n", name, reg.Len())
		for i, v := range reg.Variants() {
			size := "variable"
			if n, ok := v.FixedSize(); ok {
				size = fmt.Sprintf("fixed %d", n)
			}
			fmt.Fprintf(env.stdout, "  0x%02x %-16s %s\n", i, v.Name(), size)
		}
	}
	return nil
}

// loadCatalog returns the built-in envelope kind plus every union defined in
// paths.
func loadCatalog(paths []string) (*union.Catalog, error) {
	catalog, err := union.NewCatalog(envelope.Kind.Registry())
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		f, err := schema.Load(path)
		if err != nil {
			return nil, err
		}
		for _, u := range f.Unions {
			reg, err := schema.CompileUnion(u)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if err := catalog.Add(reg); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return catalog, nil
}

func parseHex(text string) ([]byte, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "0x")
	text = strings.NewReplacer(" ", "", "\n", "", "\t", "").Replace(text)
	buf, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex input: %v", errUsage, err)
	}
	return buf, nil
}
