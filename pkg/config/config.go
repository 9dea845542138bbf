// Package config loads the action menu service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvVarReadOnly overrides read_only when set to a boolean value.
	EnvVarReadOnly = "ACTIONMENU_READ_ONLY"

	// EnvVarLogLevel overrides log_level.
	EnvVarLogLevel = "LOG_LEVEL"

	// DefaultPort is the HTTP port used when none is configured.
	DefaultPort = 9876

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second

	// DefaultReadTimeout bounds reading a whole request.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds writing a response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout bounds idle keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultMaxHeaderBytes limits request header size.
	DefaultMaxHeaderBytes = 1 << 20
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

const sampleYAML = `# actionmenu configuration
port: 9876

# Puts the site in read-only mode. Only superusers and read-only exempt
# actions are shown.
read_only: false

log_level: info

# Serves the site under /s/<local_site>/ when set.
local_site: ""

# Directory of *.hcl action manifests installed at startup.
extensions_dir: ""

features:
  general-comments: true

shutdown_timeout: 5s

# Zero disables a timeout.
read_timeout: 10s
write_timeout: 10s
idle_timeout: 60s
max_header_bytes: 1048576

# Serve HTTPS when both are set.
tls_cert_file: ""
tls_key_file: ""
`

// Config models the service configuration file.
type Config struct {
	Port            int             `yaml:"port"`
	ReadOnly        bool            `yaml:"read_only"`
	LogLevel        string          `yaml:"log_level"`
	LocalSite       string          `yaml:"local_site,omitempty"`
	ExtensionsDir   string          `yaml:"extensions_dir,omitempty"`
	Features        map[string]bool `yaml:"features,omitempty"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout"`
	MaxHeaderBytes  int             `yaml:"max_header_bytes"`
	TLSCertFile     string          `yaml:"tls_cert_file,omitempty"`
	TLSKeyFile      string          `yaml:"tls_key_file,omitempty"`
}

// TLSEnabled reports whether a certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		LogLevel:        DefaultLogLevel,
		Features:        map[string]bool{},
		ShutdownTimeout: DefaultShutdownTimeout,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		MaxHeaderBytes:  DefaultMaxHeaderBytes,
	}
}

// Sample returns a commented configuration file with the defaults.
func Sample() string {
	return sampleYAML
}

// Load reads the configuration at path on top of the defaults and applies
// environment overrides. An empty path loads only defaults and environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvVarLogLevel)); v != "" {
		c.LogLevel = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvVarReadOnly)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvVarReadOnly, v)
		}
		c.ReadOnly = b
	}

	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("%w: negative read, write or idle timeout", ErrInvalidConfig)
	}
	if c.MaxHeaderBytes <= 0 {
		return fmt.Errorf("%w: max_header_bytes must be positive", ErrInvalidConfig)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("%w: tls_cert_file and tls_key_file must be set together", ErrInvalidConfig)
	}
	if strings.Contains(c.LocalSite, "/") {
		return fmt.Errorf("%w: local_site %q may not contain '/'", ErrInvalidConfig, c.LocalSite)
	}
	if c.Features == nil {
		c.Features = map[string]bool{}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
