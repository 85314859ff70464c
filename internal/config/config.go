// Package config loads git-summarizer configuration from a YAML file and
// the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// AppName names the config directory under XDG_CONFIG_HOME.
const AppName = "git-summarizer"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GIT_SUMMARIZER_"

// Config holds the process configuration.
type Config struct {
	// Workdir is the directory whose git repository the tools operate on.
	Workdir string `koanf:"workdir"`
	// CommitFormat replaces the built-in commit message template when set.
	CommitFormat string `koanf:"commit_format"`
	// Author overrides the commit identity taken from git config.
	Author AuthorConfig  `koanf:"author"`
	Log    LoggingConfig `koanf:"log"`
}

// AuthorConfig is the commit identity override.
type AuthorConfig struct {
	Name  string `koanf:"name"`
	Email string `koanf:"email"`
}

// LoggingConfig controls the stderr logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// topLevelKeys are keys whose names contain an underscore but no section.
var topLevelKeys = map[string]bool{
	"workdir":       true,
	"commit_format": true,
}

// DefaultPath returns $XDG_CONFIG_HOME/git-summarizer/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load reads configuration with this precedence (highest first):
//  1. environment variables (GIT_SUMMARIZER_LOG_LEVEL -> log.level)
//  2. the YAML file at path, or DefaultPath() when path is empty
//  3. defaults
//
// A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = DefaultPath()
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps GIT_SUMMARIZER_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if topLevelKeys[key] {
		return key
	}
	parts := strings.SplitN(key, "_", 2)
	if len(parts) == 1 {
		return key
	}
	return parts[0] + "." + parts[1]
}

func applyDefaults(cfg *Config) {
	if cfg.Workdir == "" {
		cfg.Workdir = os.Getenv("CLIENT_WORKDIR")
	}
	if cfg.Workdir == "" {
		cfg.Workdir = os.Getenv("WORKDIR")
	}
	if cfg.Workdir == "" {
		cfg.Workdir = "."
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks logging settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}
