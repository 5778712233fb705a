package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/arneg82/migAz/internal/core"
)

const (
	DefaultHTTPTimeout = 30 * time.Second

	AuditTypeFile   = "file"
	AuditTypeMemory = "memory"
)

type Config struct {
	// Environment is the name of a predefined or a custom environment.
	Environment string `yaml:"environment"`

	// Environments are custom clouds in addition to the predefined ones.
	// A custom environment may shadow a predefined one with the same name.
	Environments []core.Environment `yaml:"environments"`

	Client ClientConfig `yaml:"client"`
	Audit  AuditConfig  `yaml:"audit"`
}

// ClientConfig holds configuration for the identity provider client.
type ClientConfig struct {
	// Discovery enables OpenID Connect discovery of the authority endpoints.
	Discovery bool `yaml:"discovery"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// PollInterval is the minimum interval between device code polls.
	// The interval announced by the authority wins if it is longer.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // "file" or "memory"
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Environment: core.AzureCloud.Name,
		Client: ClientConfig{
			HTTPTimeout: DefaultHTTPTimeout,
		},
	}
}

// Load reads and parses the configuration file at the given path.
// Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

// AllEnvironments returns the predefined environments followed by the custom ones.
func (c *Config) AllEnvironments() []core.Environment {
	return append(core.PredefinedEnvironments(), c.Environments...)
}

// ResolveEnvironment looks up name among the custom and the predefined environments.
// An empty name resolves the configured environment.
func (c *Config) ResolveEnvironment(name string) (core.Environment, error) {
	if name == "" {
		name = c.Environment
	}
	for _, env := range c.Environments {
		if strings.EqualFold(env.Name, name) {
			return env, nil
		}
	}
	if env, ok := core.LookupEnvironment(name); ok {
		return env, nil
	}
	return core.Environment{}, fmt.Errorf("unknown environment '%s'", name)
}

func (c *Config) Validate() error {
	seen := make(map[string]struct{})
	for idx, env := range c.Environments {
		if err := env.Validate(); err != nil {
			return fmt.Errorf("environment at index %d: %w", idx, err)
		}
		key := strings.ToLower(env.Name)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("environment '%s' is defined more than once", env.Name)
		}
		seen[key] = struct{}{}
	}

	if _, err := c.ResolveEnvironment(c.Environment); err != nil {
		return err
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("validating client: %w", err)
	}
	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("validating audit: %w", err)
	}
	return nil
}

func (c *ClientConfig) Validate() error {
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative")
	}
	return nil
}

func (c *AuditConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Type {
	case AuditTypeMemory:
	case AuditTypeFile:
		if c.Path == "" {
			return fmt.Errorf("path is required for file audit")
		}
	default:
		return fmt.Errorf("unknown audit type '%s'", c.Type)
	}
	return nil
}
