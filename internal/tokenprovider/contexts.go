package tokenprovider

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/arneg82/migAz/internal/core"
)

// AuthContext is a session binding to one tenant's authority.
type AuthContext struct {
	authority string
	tenant    uuid.UUID
	client    core.IdentityClient
}

func (c *AuthContext) Authority() string {
	return c.authority
}

// Tenant returns uuid.Nil for the default context.
func (c *AuthContext) Tenant() uuid.UUID {
	return c.tenant
}

func (c *AuthContext) IsDefault() bool {
	return c.tenant == uuid.Nil
}

// AcquireToken requests a token for resource against this context's authority.
// user is nil when no identity constraint applies.
func (c *AuthContext) AcquireToken(
	ctx context.Context,
	resource string,
	params core.PromptParameters,
	user *core.UserIdentifier,
) (core.Result, error) {
	return c.client.AcquireToken(ctx, core.TokenRequest{
		Authority:   c.authority,
		Resource:    resource,
		ClientID:    core.ClientID,
		RedirectURL: core.RedirectURL,
		Prompt:      params,
		User:        user,
	})
}

// contextCache memoizes one AuthContext per tenant. Entries are never evicted.
type contextCache struct {
	env    core.Environment
	client core.IdentityClient

	// defaultCtx is created once by newContextCache and never replaced.
	defaultCtx *AuthContext

	mu      sync.Mutex
	tenants map[uuid.UUID]*AuthContext
}

func newContextCache(env core.Environment, client core.IdentityClient) *contextCache {
	return &contextCache{
		env:    env,
		client: client,
		defaultCtx: &AuthContext{
			authority: env.DefaultAuthority(),
			client:    client,
		},
		tenants: make(map[uuid.UUID]*AuthContext),
	}
}

func (c *contextCache) contextFor(tenant uuid.UUID) *AuthContext {
	if tenant == uuid.Nil {
		return c.defaultCtx
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.tenants[tenant]; ok {
		return existing
	}
	created := &AuthContext{
		authority: c.env.TenantAuthority(tenant.String()),
		tenant:    tenant,
		client:    c.client,
	}
	c.tenants[tenant] = created
	return created
}

func (c *contextCache) tenantIDs() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(c.tenants))
	for id := range c.tenants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
