// Package config loads application configuration: defaults from flag
// definitions, then an optional YAML file, then DECKD_-prefixed environment
// variables, then explicitly set flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the runtime settings of the deckd binary.
type Config struct {
	DB          string  `koanf:"db" validate:"required"`
	Listen      string  `koanf:"listen" validate:"required,hostname_port"`
	ReposDir    string  `koanf:"repos-dir" validate:"required"`
	Retention   float64 `koanf:"retention" validate:"gt=0,lte=1"`
	MaxInterval int     `koanf:"max-interval" validate:"gt=0"`
	SyncOnStart bool    `koanf:"sync-on-start"`
}

// Flags defines the command-line flags whose defaults seed the config.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("deckd", pflag.ContinueOnError)
	f.String("config", "", "path to an optional YAML config file")
	f.String("db", "deckd.db", "path to the sqlite database file")
	f.String("listen", "127.0.0.1:8484", "address for the HTTP server")
	f.String("repos-dir", "repos", "directory for git source checkouts")
	f.Float64("retention", 0.9, "desired recall probability at review time")
	f.Int("max-interval", 36500, "maximum review interval in days")
	f.Bool("sync-on-start", true, "reconcile card sources at startup")
	return f
}

// Load merges flag defaults, the YAML file (if given), environment, and set
// flags into a validated Config.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("DECKD_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "DECKD_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadFromArgs parses args and loads the config; the common path for main.
func LoadFromArgs(args []string) (*Config, error) {
	f := Flags()
	if err := f.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}
	return Load(f)
}
