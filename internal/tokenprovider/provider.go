package tokenprovider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/arneg82/migAz/internal/audit"
	"github.com/arneg82/migAz/internal/core"
	"github.com/arneg82/migAz/internal/logging"
)

const (
	categoryGetToken = "GetToken"
	categoryLogin    = "Login"
)

// Provider acquires tokens against one environment. It keeps one AuthContext per
// tenant and remembers the last authenticated user so that later silent requests
// continue as the same identity.
//
// GetToken and Login are serialized per provider: the read of the remembered
// user, the constrained request and the update happen as one step.
type Provider struct {
	env     core.Environment
	client  core.IdentityClient
	auditor core.Auditor
	logger  zerolog.Logger
	owner   any

	contexts *contextCache
	flow     *semaphore.Weighted

	mu           sync.RWMutex
	lastUserInfo *core.UserInfo
}

type Option func(*Provider)

// WithAuditor records every acquisition. Defaults to a no-op auditor.
func WithAuditor(a core.Auditor) Option {
	return func(p *Provider) {
		p.auditor = a
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithPromptOwner sets the UI owner handle passed through to the identity client.
func WithPromptOwner(owner any) Option {
	return func(p *Provider) {
		p.owner = owner
	}
}

// New creates a provider for env. The default context is created here.
func New(env core.Environment, client core.IdentityClient, opts ...Option) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("identity client is required")
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	p := &Provider{
		env:      env,
		client:   client,
		auditor:  audit.NewNoopAuditor(),
		logger:   log.Logger,
		contexts: newContextCache(env, client),
		flow:     semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().
		Str("component", "token-provider").
		Str("environment", env.Name).
		Logger()
	return p, nil
}

func (p *Provider) Environment() core.Environment {
	return p.env
}

// Context returns the AuthContext for tenant, creating it on first use.
// uuid.Nil selects the default context.
func (p *Provider) Context(tenant uuid.UUID) *AuthContext {
	return p.contexts.contextFor(tenant)
}

// Tenants lists the tenants a context has been created for.
func (p *Provider) Tenants() []uuid.UUID {
	return p.contexts.tenantIDs()
}

// LastUserInfo returns a copy of the remembered identity, or nil.
func (p *Provider) LastUserInfo() *core.UserInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneUserInfo(p.lastUserInfo)
}

// SetLastUserInfo overrides the remembered identity, e.g. to switch user or forget it (nil).
func (p *Provider) SetLastUserInfo(info *core.UserInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastUserInfo = cloneUserInfo(info)
}

// GetToken acquires a token for resourceURL in tenant (uuid.Nil for the home tenant).
// If a user was authenticated before, the request is constrained to that user.
//
// On success the remembered user becomes the returned identity, on an empty result it
// is cleared, and on error it is left untouched and the error is returned unchanged.
func (p *Provider) GetToken(
	ctx context.Context,
	resourceURL string,
	tenant uuid.UUID,
	policy core.PromptPolicy,
) (core.Result, error) {
	return p.acquire(ctx, acquisition{
		category:  categoryGetToken,
		action:    "token.acquire",
		resource:  resourceURL,
		tenant:    tenant,
		policy:    policy,
		constrain: true,
	})
}

// Login authenticates against the default context without an identity constraint
// and establishes the remembered user.
func (p *Provider) Login(ctx context.Context, resourceURL string, policy core.PromptPolicy) (core.Result, error) {
	return p.acquire(ctx, acquisition{
		category: categoryLogin,
		action:   "token.login",
		resource: resourceURL,
		tenant:   uuid.Nil,
		policy:   policy,
	})
}

// LoginDefault is Login with PromptAlways.
func (p *Provider) LoginDefault(ctx context.Context, resourceURL string) (core.Result, error) {
	return p.Login(ctx, resourceURL, core.PromptAlways)
}

type acquisition struct {
	category  string
	action    string
	resource  string
	tenant    uuid.UUID
	policy    core.PromptPolicy
	constrain bool
}

func (p *Provider) acquire(ctx context.Context, a acquisition) (core.Result, error) {
	correlationID := xid.New().String()
	logger := p.logger.With().
		Str(logging.CategoryField, a.category).
		Str("correlation_id", correlationID).
		Logger()

	entry := core.AuditEntry{
		ID:          correlationID,
		Time:        time.Now(),
		Action:      a.action,
		Environment: p.env.Name,
		Tenant:      tenantLabel(a.tenant),
		Resource:    a.resource,
		Prompt:      a.policy.String(),
	}
	defer func() {
		if err := p.auditor.Log(entry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit entry")
		}
	}()

	fail := func(err error) (core.Result, error) {
		entry.Outcome = audit.OutcomeOf(false, err)
		entry.Error = err.Error()
		logger.Warn().Err(err).Msg("End token request")
		return core.Result{}, err
	}

	if !a.policy.IsValid() {
		return fail(fmt.Errorf("unknown prompt policy %d", int(a.policy)))
	}

	if err := p.flow.Acquire(ctx, 1); err != nil {
		return fail(fmt.Errorf("waiting for pending token request: %w", err))
	}
	defer p.flow.Release(1)

	authCtx := p.contexts.defaultCtx
	var required *core.UserIdentifier
	if a.constrain {
		authCtx = p.contexts.contextFor(a.tenant)
		if last := p.LastUserInfo(); last != nil {
			required = &core.UserIdentifier{
				ID:   last.DisplayableID,
				Type: core.RequiredDisplayableID,
			}
			if last.DisplayableID == "" {
				required = &core.UserIdentifier{ID: last.UniqueID, Type: core.UniqueID}
			}
			entry.RequiredUser = core.RedactIdentity(required.ID)
		}
	}
	entry.Authority = authCtx.Authority()

	requiredLabel := "N/A"
	if required != nil {
		requiredLabel = core.RedactIdentity(required.ID)
	}
	logger.Info().
		Str("resource", a.resource).
		Stringer("tenant", a.tenant).
		Str("authority", authCtx.Authority()).
		Stringer("prompt", a.policy).
		Str("required_user", requiredLabel).
		Msg("Start token request")

	params := core.PromptParameters{Policy: a.policy, Owner: p.owner}
	res, err := authCtx.AcquireToken(ctx, a.resource, params, required)
	if err != nil {
		// the remembered user stays as it was: a failure does not mean it became invalid
		return fail(err)
	}

	if !res.OK() {
		p.SetLastUserInfo(nil)
		entry.Outcome = audit.OutcomeOf(false, nil)
		logger.Info().Msg("End token request: no result")
		return core.Empty(), nil
	}

	p.SetLastUserInfo(res.Token.UserInfo)
	entry.Outcome = audit.OutcomeOf(true, nil)
	entry.User = res.Token.UserInfo.Redacted()
	entry.TokenFingerprint = audit.CalculateFingerprint(audit.BearerFingerprintType, res.Token.AccessToken)
	entry.ExpiresOn = res.Token.ExpiresOn

	logger.Info().
		Str("user", res.Token.UserInfo.Redacted()).
		Time("expires_on", res.Token.ExpiresOn).
		Msg("End token request")
	return res, nil
}

// Equal reports whether p and other target the same environment.
func (p *Provider) Equal(other *Provider) bool {
	return Equal(p, other)
}

// Equal compares providers by environment only; cached contexts and the remembered
// user do not participate. Two nil providers are equal.
func Equal(a, b *Provider) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.env.Equal(b.env)
}

func tenantLabel(tenant uuid.UUID) string {
	if tenant == uuid.Nil {
		return ""
	}
	return tenant.String()
}

func cloneUserInfo(info *core.UserInfo) *core.UserInfo {
	if info == nil {
		return nil
	}
	c := *info
	return &c
}
