// Package config loads the process configuration from a YAML file with
// environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full process configuration, shared by both roles.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
	OneFrame OneFrameConfig `yaml:"oneFrame"`
}

// HTTPConfig configures the API role's listener.
type HTTPConfig struct {
	Addr    string   `yaml:"addr"`
	Timeout Duration `yaml:"timeout"` // server-wide per-request timeout
}

// ValkeyConfig configures the shared store connection.
type ValkeyConfig struct {
	URI string `yaml:"uri"`
}

// OneFrameConfig configures the upstream quote provider.
type OneFrameConfig struct {
	BaseURL    string   `yaml:"baseUrl"`
	Token      string   `yaml:"token"`
	Timeout    Duration `yaml:"timeout"`
	MaxRetries int      `yaml:"maxRetries"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:    ":8080",
			Timeout: Duration(5 * time.Second),
		},
		Valkey: ValkeyConfig{
			URI: "redis://localhost:6379/0",
		},
		OneFrame: OneFrameConfig{
			BaseURL:    "http://localhost:8081/rates",
			Timeout:    Duration(10 * time.Second),
			MaxRetries: 3,
		},
	}
}

// Load reads the config file at path, falling back to defaults when path is
// empty or the file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets deployments inject connection details and secrets
// without touching the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FXPROXY_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("FXPROXY_VALKEY_URI"); v != "" {
		cfg.Valkey.URI = v
	}
	if v := os.Getenv("FXPROXY_ONEFRAME_URL"); v != "" {
		cfg.OneFrame.BaseURL = v
	}
	if v := os.Getenv("FXPROXY_ONEFRAME_TOKEN"); v != "" {
		cfg.OneFrame.Token = v
	}
}

// Validate ensures the configuration is usable before either role boots.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr cannot be empty")
	}
	if c.HTTP.Timeout.Std() <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout.Std())
	}
	if c.Valkey.URI == "" {
		return fmt.Errorf("valkey.uri cannot be empty")
	}
	if c.OneFrame.BaseURL == "" {
		return fmt.Errorf("oneFrame.baseUrl cannot be empty")
	}
	if c.OneFrame.Timeout.Std() <= 0 {
		return fmt.Errorf("oneFrame.timeout must be positive, got %s", c.OneFrame.Timeout.Std())
	}
	if c.OneFrame.MaxRetries < 0 {
		return fmt.Errorf("oneFrame.maxRetries cannot be negative, got %d", c.OneFrame.MaxRetries)
	}
	return nil
}
