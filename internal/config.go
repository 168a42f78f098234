package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration source priority (highest to lowest):
// 1. Command line flags
// 2. Environment variables (SIGNBRIDGE_SERVER, SIGNBRIDGE_DATA_DIR)
// 3. Config file (--config or ~/.config/signbridge/config.yaml)
// 4. Defaults

const (
	EnvServer  = "SIGNBRIDGE_SERVER"
	EnvDataDir = "SIGNBRIDGE_DATA_DIR"

	defaultServer         = "http://localhost:8080"
	defaultRequestTimeout = 30 * time.Second
	minPollInterval       = time.Second
)

// Defaults holds per-user translation defaults
type Defaults struct {
	SignLanguage   string `yaml:"sign_language"`
	TargetLanguage string `yaml:"target_language"`
	Audio          bool   `yaml:"audio"`
}

// Config is the client configuration
type Config struct {
	// Server is the backend base URL
	Server string `yaml:"server"`

	// DataDir holds the credential database and recent history
	DataDir string `yaml:"data_dir"`

	// RequestTimeout bounds a single HTTP request (uploads excluded)
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// PollInterval is how often a running task is polled
	PollInterval time.Duration `yaml:"poll_interval"`

	Defaults Defaults `yaml:"defaults"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	dataDir := ".signbridge"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".signbridge")
	}
	return &Config{
		Server:         defaultServer,
		DataDir:        dataDir,
		RequestTimeout: defaultRequestTimeout,
		PollInterval:   DefaultPollInterval,
		Defaults: Defaults{
			SignLanguage:   "ase",
			TargetLanguage: "en",
		},
	}
}

// DefaultConfigPath returns ~/.config/signbridge/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "signbridge", "config.yaml")
}

// LoadConfig reads path (or the default path when empty) over the defaults
// and applies environment overrides. A missing default file is not an error;
// a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if env := os.Getenv(EnvServer); env != "" {
		cfg.Server = env
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		cfg.DataDir = env
	}

	cfg.Server = strings.TrimRight(cfg.Server, "/")
	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", c.Server)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.PollInterval < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s", minPollInterval)
	}
	return nil
}

// DatabasePath returns the credential database location
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "signbridge.db")
}

// PipelineDefaults returns the configured translation defaults
func (c *Config) PipelineDefaults() PipelineOptions {
	return PipelineOptions{
		SignLanguage:   c.Defaults.SignLanguage,
		TargetLanguage: c.Defaults.TargetLanguage,
		Audio:          c.Defaults.Audio,
	}
}
