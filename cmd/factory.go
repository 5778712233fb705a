package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/arneg82/migAz/internal/audit"
	"github.com/arneg82/migAz/internal/cliconfig"
	"github.com/arneg82/migAz/internal/config"
	"github.com/arneg82/migAz/internal/core"
	"github.com/arneg82/migAz/internal/idp/aad"
	"github.com/arneg82/migAz/internal/tokenprovider"
)

type Factory struct {
	// ConfigPath is the MigAz configuration file. Empty means defaults.
	ConfigPath string

	// Environment overrides the environment of the configuration.
	Environment string
}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(f.ConfigPath)
}

func (f *Factory) ResolveEnvironment(cfg *config.Config) (core.Environment, error) {
	return cfg.ResolveEnvironment(f.Environment)
}

// ResolveResource returns resource or the environment's resource manager.
func (f *Factory) ResolveResource(env core.Environment, resource string) (string, error) {
	if resource != "" {
		return resource, nil
	}
	if env.ResourceManagerURL == "" {
		return "", fmt.Errorf("no resource given and environment '%s' has no resource manager URL (use --resource)", env.Name)
	}
	return env.ResourceManagerURL, nil
}

// Session is a provider with the resources it holds.
type Session struct {
	Config      *config.Config
	Environment core.Environment
	Provider    *tokenprovider.Provider
	Auditor     core.Auditor
}

func (s *Session) Close() {
	if err := s.Auditor.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close audit log")
	}
}

// NewSession builds a token provider for the configured environment. The device
// code prompt is printed to stderr so that stdout only carries results.
func (f *Factory) NewSession() (*Session, error) {
	cfg, err := f.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	env, err := f.ResolveEnvironment(cfg)
	if err != nil {
		return nil, err
	}

	auditor, err := newAuditor(cfg.Audit)
	if err != nil {
		return nil, err
	}

	client := aad.New(
		aad.WithHTTPClient(newHTTPClient(cfg.Client)),
		aad.WithDiscovery(cfg.Client.Discovery),
		aad.WithPollInterval(cfg.Client.PollInterval),
		aad.WithPrompter(consolePrompter{out: os.Stderr}),
		aad.WithLogger(log.Logger),
	)

	provider, err := tokenprovider.New(env, client,
		tokenprovider.WithAuditor(auditor),
		tokenprovider.WithLogger(log.Logger),
	)
	if err != nil {
		_ = auditor.Close()
		return nil, fmt.Errorf("creating token provider: %w", err)
	}

	return &Session{
		Config:      cfg,
		Environment: env,
		Provider:    provider,
		Auditor:     auditor,
	}, nil
}

func newAuditor(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case config.AuditTypeFile:
		a, err := audit.NewFileAuditor(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("creating file auditor: %w", err)
		}
		return a, nil
	case config.AuditTypeMemory:
		return audit.NewInMemoryAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown audit type '%s'", cfg.Type)
	}
}

func newHTTPClient(cfg config.ClientConfig) *http.Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = aad.DefaultHTTPTimeout
	}
	return aad.NewHTTPClient(timeout)
}

type tenantRef struct {
	Ref string
	ID  uuid.UUID
}

// LoadTenants resolves tenant references (aliases or IDs) of the session's environment.
// No references resolve the default tenant.
func (f *Factory) LoadTenants(env core.Environment, refs []string) ([]tenantRef, error) {
	cli, err := cliconfig.Load()
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		refs = []string{""}
	}

	tenants := make([]tenantRef, 0, len(refs))
	for _, ref := range refs {
		id, err := cli.ResolveTenant(env.Name, ref)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenantRef{Ref: ref, ID: id})
	}
	return tenants, nil
}

type requestFlags struct {
	resource string
	prompt   string
}

func (r *requestFlags) bind(flags *pflag.FlagSet, defaultPrompt core.PromptPolicy) {
	flags.StringVarP(&r.resource, "resource", "r", "",
		"Resource to request a token for (default is the environment's resource manager)")
	flags.StringVarP(&r.prompt, "prompt", "p", defaultPrompt.String(),
		"Prompt policy (auto, always, never, refresh_session)")
}
