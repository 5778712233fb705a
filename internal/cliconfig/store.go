package cliconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var ErrTenantNotFound = fmt.Errorf("tenant not found")

// CLIConfig holds per-user CLI state: tenant aliases per environment and the
// tenant used when none is given. It never holds tokens.
type CLIConfig struct {
	// Tenants maps environment name -> alias -> tenant ID.
	Tenants map[string]map[string]string `json:"tenants,omitempty"`

	// DefaultTenants maps environment name -> alias or tenant ID.
	DefaultTenants map[string]string `json:"default_tenants,omitempty"`
}

type TenantAlias struct {
	Alias   string
	ID      uuid.UUID
	Default bool
}

// PathEnv overrides the location of the config file.
const PathEnv = "MIGAZ_CLI_CONFIG"

func GetConfigPath() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(home, ".migaz", "config.json"), nil
}

// Load reads the CLI config. A missing file yields an empty config.
func Load() (*CLIConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &CLIConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening config file '%s': %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	var cfg CLIConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file '%s': %w", path, err)
	}
	return &cfg, nil
}

func Save(cfg *CLIConfig) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory '%s': %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file '%s' for writing: %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config to file '%s': %w", path, err)
	}
	return nil
}

func envKey(env string) string {
	return strings.ToLower(env)
}

// AddTenant registers alias for tenant in env, replacing an existing alias.
func (c *CLIConfig) AddTenant(env, alias string, tenant uuid.UUID) error {
	if alias == "" {
		return fmt.Errorf("alias is required")
	}
	if _, err := uuid.Parse(alias); err == nil {
		return fmt.Errorf("alias '%s' must not be a tenant ID", alias)
	}
	if tenant == uuid.Nil {
		return fmt.Errorf("tenant ID must not be the nil UUID")
	}

	if c.Tenants == nil {
		c.Tenants = make(map[string]map[string]string)
	}
	key := envKey(env)
	if c.Tenants[key] == nil {
		c.Tenants[key] = make(map[string]string)
	}
	c.Tenants[key][alias] = tenant.String()
	return nil
}

// RemoveTenant removes alias from env. The default tenant is reset if it pointed to alias.
func (c *CLIConfig) RemoveTenant(env, alias string) error {
	key := envKey(env)
	if _, ok := c.Tenants[key][alias]; !ok {
		return ErrTenantNotFound
	}
	delete(c.Tenants[key], alias)
	if len(c.Tenants[key]) == 0 {
		delete(c.Tenants, key)
	}
	if c.DefaultTenants[key] == alias {
		delete(c.DefaultTenants, key)
	}
	return nil
}

// ResolveTenant turns an alias or a tenant ID into a tenant ID.
// An empty reference resolves the default tenant of env, or uuid.Nil if there is none.
func (c *CLIConfig) ResolveTenant(env, ref string) (uuid.UUID, error) {
	if ref == "" {
		ref = c.DefaultTenants[envKey(env)]
		if ref == "" {
			return uuid.Nil, nil
		}
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	raw, ok := c.Tenants[envKey(env)][ref]
	if !ok {
		return uuid.Nil, fmt.Errorf("resolving '%s': %w", ref, ErrTenantNotFound)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("alias '%s' points to invalid tenant ID '%s': %w", ref, raw, err)
	}
	return id, nil
}

// SetDefaultTenant sets the default tenant of env. ref must resolve.
func (c *CLIConfig) SetDefaultTenant(env, ref string) error {
	if ref == "" {
		delete(c.DefaultTenants, envKey(env))
		return nil
	}
	if _, err := c.ResolveTenant(env, ref); err != nil {
		return err
	}
	if c.DefaultTenants == nil {
		c.DefaultTenants = make(map[string]string)
	}
	c.DefaultTenants[envKey(env)] = ref
	return nil
}

// ListTenants returns the aliases of env sorted by alias.
func (c *CLIConfig) ListTenants(env string) []TenantAlias {
	key := envKey(env)
	def := c.DefaultTenants[key]

	aliases := make([]TenantAlias, 0, len(c.Tenants[key]))
	for alias, raw := range c.Tenants[key] {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		aliases = append(aliases, TenantAlias{Alias: alias, ID: id, Default: alias == def || raw == def})
	}
	sort.Slice(aliases, func(i, j int) bool {
		return aliases[i].Alias < aliases[j].Alias
	})
	return aliases
}
