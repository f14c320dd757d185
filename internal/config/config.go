// Package config provides YAML-based configuration loading for the sszunion
// command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SSZUNION_LOG_LEVEL.
const EnvPrefix = "SSZUNION"

// Config is the root configuration of the sszunion command.
type Config struct {
	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Gen controls code generation
	Gen GenConfig `mapstructure:"gen"`

	// Decode controls the decode and encode subcommands
	Decode DecodeConfig `mapstructure:"decode"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// GenConfig holds generator settings.
type GenConfig struct {
	// Header is placed as a comment above the package clause of generated files
	Header string `mapstructure:"header"`
	// Suffix names the output file when none is given: <base><suffix>
	Suffix string `mapstructure:"suffix"`
}

// DecodeConfig holds limits for decoding.
type DecodeConfig struct {
	// MaxEnvelopeSize caps the decompressed size of an opened envelope
	MaxEnvelopeSize int `mapstructure:"max_envelope_size"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "warn",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/sszunion.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Gen: GenConfig{
			Suffix: "_union.go",
		},
		Decode: DecodeConfig{
			MaxEnvelopeSize: 64 << 20,
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix SSZUNION and `.`/`-` are replaced
// with `_`. Example: SSZUNION_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("gen.header", cfg.Gen.Header)
	v.SetDefault("gen.suffix", cfg.Gen.Suffix)
	v.SetDefault("decode.max_envelope_size", cfg.Decode.MaxEnvelopeSize)

	if path == "" {
		if envPath := os.Getenv(EnvPrefix + "_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sszunion")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sszunion"))
		}
	}

	// A missing file is fine; defaults and env still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "":
		c.Log.Format = "console"
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	c.Gen.Suffix = strings.TrimSpace(c.Gen.Suffix)
	if c.Gen.Suffix == "" {
		c.Gen.Suffix = "_union.go"
	}
	if !strings.HasSuffix(c.Gen.Suffix, ".go") {
		return fmt.Errorf("invalid gen.suffix: %q must end in .go", c.Gen.Suffix)
	}

	if c.Decode.MaxEnvelopeSize <= 0 {
		return fmt.Errorf("invalid decode.max_envelope_size: %d", c.Decode.MaxEnvelopeSize)
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
