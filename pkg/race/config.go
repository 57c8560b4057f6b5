package race

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lagoinha-go/lagoinha/pkg/types"
)

// Config describes a coordinator and the providers it races.
type Config struct {
	Name string `yaml:"name,omitempty"`
	// TimeoutMS bounds a whole lookup when the caller composes it with
	// ResolveWithTimeout. Zero means no bound.
	TimeoutMS int                 `yaml:"timeout_ms,omitempty"`
	Providers []ProviderReference `yaml:"providers"`
}

// ProviderReference configures one provider taking part in the race.
type ProviderReference struct {
	// Name identifies the provider in results and errors. Defaults to the type.
	Name string             `yaml:"name,omitempty"`
	Type types.ProviderType `yaml:"type"`
	// BaseURL overrides the provider's public endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// TimeoutMS is the HTTP client timeout for this provider only.
	TimeoutMS int    `yaml:"timeout_ms,omitempty"`
	Token     string `yaml:"token,omitempty"` // sent as a bearer token when set
	UserAgent string `yaml:"user_agent,omitempty"`
}

// DisplayName returns the configured name, falling back to the provider type.
func (r ProviderReference) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return string(r.Type)
}

// Timeout returns the per-provider HTTP timeout, or zero when unset.
func (r ProviderReference) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// DefaultConfig races the three public providers with a five second bound.
func DefaultConfig() *Config {
	return &Config{
		Name:      DefaultName,
		TimeoutMS: 5000,
		Providers: []ProviderReference{
			{Type: types.ProviderTypeViaCEP},
			{Type: types.ProviderTypeCepla},
			{Type: types.ProviderTypeCorreios},
		},
	}
}

// LoadConfig reads a YAML configuration file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Timeout returns the overall lookup bound, or zero when unset.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c.TimeoutMS < 0 {
		return &ConfigError{Field: "timeout_ms", Message: "must be non-negative"}
	}

	if len(c.Providers) == 0 {
		return &ConfigError{Field: "providers", Message: "at least one provider must be configured"}
	}

	seen := make(map[string]int, len(c.Providers))
	for i, ref := range c.Providers {
		field := fmt.Sprintf("providers[%d]", i)
		if ref.Type == "" {
			return &ConfigError{Field: field + ".type", Message: "cannot be empty"}
		}
		if ref.TimeoutMS < 0 {
			return &ConfigError{Field: field + ".timeout_ms", Message: "must be non-negative"}
		}
		name := ref.DisplayName()
		if prev, dup := seen[name]; dup {
			return &ConfigError{
				Field:   field + ".name",
				Message: fmt.Sprintf("%q already used by providers[%d]", name, prev),
			}
		}
		seen[name] = i
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
