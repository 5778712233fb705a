package aad

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// StaticEndpoint derives the endpoints of an authority without discovery.
func StaticEndpoint(authority string) oauth2.Endpoint {
	base := strings.TrimSuffix(authority, "/")
	return oauth2.Endpoint{
		AuthURL:       base + "/oauth2/authorize",
		TokenURL:      base + "/oauth2/token",
		DeviceAuthURL: base + "/oauth2/devicecode",
		AuthStyle:     oauth2.AuthStyleInParams,
	}
}

// endpoint resolves and memoizes the endpoints of authority. Concurrent lookups
// of the same authority share one discovery request.
func (c *Client) endpoint(ctx context.Context, authority string) (oauth2.Endpoint, error) {
	c.mu.RLock()
	ep, ok := c.endpoints[authority]
	c.mu.RUnlock()
	if ok {
		return ep, nil
	}

	v, err, _ := c.discoveries.Do(authority, func() (any, error) {
		c.mu.RLock()
		ep, ok := c.endpoints[authority]
		c.mu.RUnlock()
		if ok {
			return ep, nil
		}

		ep, err := c.discover(ctx, authority)
		if err != nil {
			return oauth2.Endpoint{}, err
		}
		c.mu.Lock()
		c.endpoints[authority] = ep
		c.mu.Unlock()
		return ep, nil
	})
	if err != nil {
		return oauth2.Endpoint{}, err
	}
	return v.(oauth2.Endpoint), nil
}

func (c *Client) discover(ctx context.Context, authority string) (oauth2.Endpoint, error) {
	static := StaticEndpoint(authority)
	if !c.discovery {
		return static, nil
	}

	// multi-tenant authorities publish a templated issuer ("{tenantid}"),
	// so the issuer in the document never equals the authority
	ctx = oidc.ClientContext(ctx, c.httpClient)
	ctx = oidc.InsecureIssuerURLContext(ctx, authority)

	provider, err := oidc.NewProvider(ctx, authority)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("discovering endpoints for '%s': %w", authority, err)
	}

	ep := provider.Endpoint()
	if ep.DeviceAuthURL == "" {
		ep.DeviceAuthURL = static.DeviceAuthURL
	}
	ep.AuthStyle = oauth2.AuthStyleInParams
	c.logger.Debug().
		Str("authority", authority).
		Str("token_url", ep.TokenURL).
		Str("device_auth_url", ep.DeviceAuthURL).
		Msg("discovered endpoints")
	return ep, nil
}
