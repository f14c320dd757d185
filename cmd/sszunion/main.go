// sszunion works with selector-tagged unions: it generates Go code from union
// definition files and encodes, decodes and lists union values from the
// command line.
//
// Every union value on the wire is one selector byte followed by the SSZ
// encoding of the selected variant. Kinds come from definition files (-d)
// and the built-in compressed envelope kind "Frame".
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/clockworklabs/sszunion/internal/config"
	"github.com/clockworklabs/sszunion/internal/observability"
)

// errUsage marks errors that should be followed by the help text.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(env *environment, args []string) error
}

// environment is shared by every subcommand.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

var commands = []command{
	{"gen", "generate Go code from a union definition file", runGen},
	{"decode", "decode a hex-encoded union value and print it as JSON", runDecode},
	{"encode", "encode a variant value and print it as hex", runEncode},
	{"list", "list known union kinds and their selectors", runList},
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var configPath string

	flagSet := pflag.NewFlagSet("sszunion", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to sszunion.yaml (default: search ., ./configs, $HOME/.sszunion)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return fmt.Errorf("%w: missing command", errUsage)
	}

	cmd, ok := lookupCommand(rest[0])
	if !ok {
		printHelp(stderr, flagSet)
		return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	env := &environment{cfg: cfg, logger: logger.Named(cmd.name), stdout: stdout, stderr: stderr}
	env.logger.Debug("running command", zap.Strings("args", rest[1:]))
	return cmd.run(env, rest[1:])
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `sszunion encodes, decodes and generates selector-tagged unions.

Usage:
  sszunion [flags] <command> [command flags] [args]

Commands:
`)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, `
Examples:
  # Generate messages_union.go next to messages.yaml
  sszunion gen -d messages.yaml

  # Decode a TestUnion value
  sszunion decode -d messages.yaml TestUnion 002a000000

  # Encode MessageB and seal it in a zstd envelope
  sszunion encode -d messages.yaml -k TestUnion -v MessageB --seal zstd 01020304

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
