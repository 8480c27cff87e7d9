package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the persons collection served by the phonebook backend.
const DefaultBaseURL = "http://localhost:3001/api/persons"

// Config holds all phonebook client configuration.
type Config struct {
	// Remote collection
	Gateway GatewayConfig `yaml:"gateway"`

	// Transient notifications
	Notifications NotificationConfig `yaml:"notifications"`

	// Interactive page
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig configures the REST client for the contact collection.
type GatewayConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout string        `yaml:"timeout"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the gateway.
type BreakerConfig struct {
	MaxRequests      uint32  `yaml:"max_requests"`      // allowed through while half-open
	Interval         string  `yaml:"interval"`          // closed-state counter reset
	Timeout          string  `yaml:"timeout"`           // open -> half-open delay
	FailureThreshold float64 `yaml:"failure_threshold"` // failure ratio that trips
	MinRequests      uint32  `yaml:"min_requests"`      // requests before the ratio counts
}

// NotificationConfig configures notification auto-clear.
type NotificationConfig struct {
	Duration string `yaml:"duration"`
}

// UIConfig configures the interactive page.
type UIConfig struct {
	Theme string `yaml:"theme"` // auto, light, dark
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL: DefaultBaseURL,
			Timeout: "10s",
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         "30s",
				Timeout:          "15s",
				FailureThreshold: 0.6,
				MinRequests:      5,
			},
		},

		Notifications: NotificationConfig{
			Duration: "3s",
		},

		UI: UIConfig{
			Theme: "auto",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(".phonebook", "logs", "phonebook.log"),
		},
	}
}

// DefaultConfigPath returns .phonebook/config.yaml under the working directory.
func DefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".phonebook", "config.yaml")
	}
	return filepath.Join(cwd, ".phonebook", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PHONEBOOK_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("PHONEBOOK_TIMEOUT"); v != "" {
		c.Gateway.Timeout = v
	}
	if v := os.Getenv("PHONEBOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PHONEBOOK_DEBUG"); v != "" {
		c.Logging.DebugMode = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("PHONEBOOK_THEME"); v != "" {
		c.UI.Theme = v
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetGatewayTimeout returns the per-request timeout.
func (c *Config) GetGatewayTimeout() time.Duration {
	return parseDuration(c.Gateway.Timeout, 10*time.Second)
}

// GetNotificationDuration returns how long notifications stay visible.
func (c *Config) GetNotificationDuration() time.Duration {
	return parseDuration(c.Notifications.Duration, 3*time.Second)
}

// GetBreakerInterval returns the closed-state reset interval.
func (c *Config) GetBreakerInterval() time.Duration {
	return parseDuration(c.Gateway.Breaker.Interval, 30*time.Second)
}

// GetBreakerTimeout returns how long the breaker stays open.
func (c *Config) GetBreakerTimeout() time.Duration {
	return parseDuration(c.Gateway.Breaker.Timeout, 15*time.Second)
}

// ValidThemes lists the accepted ui.theme values.
var ValidThemes = []string{"auto", "light", "dark"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid gateway base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid gateway base_url %q: scheme must be http or https", c.Gateway.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid gateway base_url %q: missing host", c.Gateway.BaseURL)
	}

	validTheme := false
	for _, th := range ValidThemes {
		if strings.EqualFold(c.UI.Theme, th) {
			validTheme = true
			break
		}
	}
	if !validTheme {
		return fmt.Errorf("invalid ui theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}

	if ft := c.Gateway.Breaker.FailureThreshold; ft < 0 || ft > 1 {
		return fmt.Errorf("invalid breaker failure_threshold: %v (must be between 0 and 1)", ft)
	}

	return nil
}
