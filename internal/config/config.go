// Package config holds runtime settings for the LookForge client and their
// layered loading: defaults, then an optional YAML file, then environment
// variables, then command-line flags. Later sources win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides, e.g. LOOKFORGE_BASE_URL.
const envPrefix = "LOOKFORGE_"

var validate = validator.New()

// Config holds runtime settings for the LookForge client.
type Config struct {
	// BaseURL is the API host, e.g. "https://api.lookforge.app".
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// RequestTimeout bounds every API exchange.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`

	// RefreshTimeout bounds the token refresh exchange; a hung refresh
	// is cut off and treated as transient.
	RefreshTimeout time.Duration `koanf:"refresh_timeout" validate:"gt=0"`

	// StoragePath is the local sqlite file holding credentials.
	StoragePath string `koanf:"storage_path" validate:"required"`

	// PollInterval / PollAttempts bound generation-status polling.
	PollInterval time.Duration `koanf:"poll_interval" validate:"gt=0"`
	PollAttempts uint64        `koanf:"poll_attempts" validate:"gt=0"`

	// LogLevel selects the zerolog level ("debug", "info", "warn", "error").
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://api.lookforge.app"
	c.RequestTimeout = 30 * time.Second
	c.RefreshTimeout = 10 * time.Second
	c.StoragePath = "lookforge.db"
	c.PollInterval = 2 * time.Second
	c.PollAttempts = 60
	c.LogLevel = "info"
}

// LoadConfig builds the effective configuration from all sources and
// validates it.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path := configFilePath(args)
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile overlays cfg with values from a YAML file.
func loadFile(cfg *Config, path string) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays cfg with LOOKFORGE_* environment variables, e.g.
// LOOKFORGE_BASE_URL, LOOKFORGE_REQUEST_TIMEOUT.
func loadEnv(cfg *Config) error {
	k := koanf.New(".")
	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return key, value
		},
	}), nil)
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}
