package aad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/arneg82/migAz/internal/audit"
	"github.com/arneg82/migAz/internal/core"
	"github.com/arneg82/migAz/internal/tokencache"
)

const (
	DefaultHTTPTimeout = 30 * time.Second

	errAccessDenied = "access_denied"
)

var _ core.IdentityClient = (*Client)(nil)

// Client acquires tokens with the OAuth2 device authorization grant and renews them
// with refresh tokens. Tokens are cached in memory for the lifetime of the client.
type Client struct {
	httpClient *http.Client
	discovery  bool
	cache      core.TokenCache
	prompter   Prompter
	logger     zerolog.Logger
	skew       time.Duration
	poll       time.Duration
	now        func() time.Time

	discoveries singleflight.Group
	mu          sync.RWMutex
	endpoints   map[string]oauth2.Endpoint
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDiscovery enables OpenID Connect discovery of each authority's endpoints.
// Without it the endpoints are derived from the authority URL.
func WithDiscovery(enabled bool) Option {
	return func(c *Client) {
		c.discovery = enabled
	}
}

func WithTokenCache(cache core.TokenCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithPrompter sets the interactive surface. Without one, interactive
// acquisition fails with core.ErrInteractionRequired.
func WithPrompter(p Prompter) Option {
	return func(c *Client) {
		c.prompter = p
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithPollInterval sets the minimum interval between device code polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.poll = d
	}
}

func withClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: NewHTTPClient(DefaultHTTPTimeout),
		cache:     tokencache.NewMemory(),
		logger:    log.Logger,
		skew:      tokencache.DefaultSkew,
		now:       time.Now,
		endpoints: make(map[string]oauth2.Endpoint),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "aad-client").Logger()
	return c
}

func (c *Client) AcquireToken(ctx context.Context, req core.TokenRequest) (core.Result, error) {
	endpoint, err := c.endpoint(ctx, req.Authority)
	if err != nil {
		return core.Result{}, err
	}

	cfg := &oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURL,
		Endpoint:    endpoint,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	if !req.Prompt.Policy.Interactive() {
		res, found, err := c.acquireSilent(ctx, cfg, req)
		if err != nil {
			return core.Result{}, err
		}
		if found {
			return res, nil
		}
		if req.Prompt.Policy == core.PromptNever {
			return core.Result{}, core.ErrInteractionRequired
		}
	}

	return c.acquireInteractive(ctx, cfg, req)
}

// acquireSilent serves from the cache or renews with a refresh token.
// found is false when the user has to be prompted.
func (c *Client) acquireSilent(ctx context.Context, cfg *oauth2.Config, req core.TokenRequest) (core.Result, bool, error) {
	key := tokencache.Key(req.Authority, req.Resource, loginHint(req.User))
	entry, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		return core.Result{}, false, fmt.Errorf("reading token cache: %w", err)
	}
	if !ok || (requiresUser(req.User) && !req.User.Matches(entry.Token.UserInfo)) {
		return core.Result{}, false, nil
	}

	if !entry.Expired(c.now(), c.skew) {
		c.logger.Debug().Str("authority", req.Authority).Msg("serving token from cache")
		return core.Success(entry.Token), true, nil
	}
	if entry.Token.RefreshToken == "" {
		return core.Result{}, false, nil
	}

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: entry.Token.RefreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// the refresh token was rejected; only a new sign-in can help
			c.logger.Debug().Str("error_code", retrieveErr.ErrorCode).Msg("refresh token rejected")
			_ = c.cache.Invalidate(ctx, key)
			return core.Result{}, false, nil
		}
		return core.Result{}, false, fmt.Errorf("refreshing token: %w", err)
	}

	res, err := c.complete(ctx, req, tok, entry.Token.UserInfo)
	if err != nil {
		return core.Result{}, false, err
	}
	return res, res.OK(), nil
}

func (c *Client) acquireInteractive(ctx context.Context, cfg *oauth2.Config, req core.TokenRequest) (core.Result, error) {
	if c.prompter == nil {
		return core.Result{}, fmt.Errorf("no prompter configured: %w", core.ErrInteractionRequired)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("resource", req.Resource),
	}
	hint := loginHint(req.User)
	if hint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", hint))
	}
	switch req.Prompt.Policy {
	case core.PromptAlways:
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "login"))
	case core.PromptRefreshSession:
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "refresh_session"))
	}

	da, err := cfg.DeviceAuth(ctx, opts...)
	if err != nil {
		return core.Result{}, fmt.Errorf("starting device authorization: %w", err)
	}

	err = c.prompter.ShowDeviceCode(ctx, DeviceCode{
		UserCode:                da.UserCode,
		VerificationURI:         da.VerificationURI,
		VerificationURIComplete: da.VerificationURIComplete,
		ExpiresAt:               da.Expiry,
		Authority:               req.Authority,
		Resource:                req.Resource,
		LoginHint:               hint,
		Owner:                   req.Prompt.Owner,
	})
	if err != nil {
		if errors.Is(err, ErrPromptDismissed) {
			return core.Empty(), nil
		}
		return core.Result{}, fmt.Errorf("showing device code: %w", err)
	}

	if time.Duration(da.Interval)*time.Second < c.poll {
		da.Interval = int64(c.poll / time.Second)
	}

	tok, err := cfg.DeviceAccessToken(ctx, da, oauth2.SetAuthURLParam("resource", req.Resource))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == errAccessDenied {
			c.logger.Info().Str("authority", req.Authority).Msg("user declined the sign-in")
			return core.Empty(), nil
		}
		return core.Result{}, fmt.Errorf("waiting for device authorization: %w", err)
	}

	return c.complete(ctx, req, tok, nil)
}

// complete turns an oauth2 token into a result, enforces a required identity and
// caches it. previous is used when the token carries no ID token (refresh grants).
func (c *Client) complete(ctx context.Context, req core.TokenRequest, tok *oauth2.Token, previous *core.UserInfo) (core.Result, error) {
	if tok == nil || tok.AccessToken == "" {
		return core.Empty(), nil
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	info, err := parseIDToken(rawIDToken)
	if err != nil {
		return core.Result{}, err
	}
	if info == nil {
		info = previous
	}

	if requiresUser(req.User) && !req.User.Matches(info) {
		actual := ""
		if info != nil {
			actual = info.DisplayableID
		}
		return core.Result{}, &IdentityMismatchError{Required: req.User.ID, Actual: actual}
	}

	result := core.TokenResult{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		ExpiresOn:    tok.Expiry,
		RefreshToken: tok.RefreshToken,
		IDToken:      rawIDToken,
		Resource:     req.Resource,
		Authority:    req.Authority,
		UserInfo:     info,
	}
	if info != nil {
		result.TenantID = info.TenantID
	}

	c.store(ctx, result)
	c.logger.Debug().
		Str("authority", req.Authority).
		Str("fingerprint", audit.CalculateFingerprint(audit.BearerFingerprintType, tok.AccessToken)).
		Msg("token acquired")
	return core.Success(result), nil
}

// store caches the token for its user and as the anonymous entry of the
// authority/resource pair, so unconstrained silent requests find it too.
func (c *Client) store(ctx context.Context, token core.TokenResult) {
	user := ""
	if token.UserInfo != nil {
		user = token.UserInfo.DisplayableID
	}
	keys := []string{tokencache.Key(token.Authority, token.Resource, "")}
	if user != "" {
		keys = append(keys, tokencache.Key(token.Authority, token.Resource, user))
	}
	if n, err := c.cache.DeleteExpired(ctx); err == nil && n > 0 {
		c.logger.Debug().Int64("count", n).Msg("pruned expired tokens")
	}
	for _, key := range keys {
		err := c.cache.Set(ctx, core.CachedToken{
			Key:       key,
			Authority: token.Authority,
			Resource:  token.Resource,
			User:      user,
			Token:     token,
			CachedAt:  c.now(),
		})
		if err != nil {
			c.logger.Warn().Err(err).Msg("failed to cache token")
		}
	}
}

func requiresUser(user *core.UserIdentifier) bool {
	return user != nil && user.Type != core.OptionalDisplayableID
}

func loginHint(user *core.UserIdentifier) string {
	if user == nil || user.Type == core.UniqueID {
		return ""
	}
	return user.ID
}

// NewHTTPClient returns an HTTP client that identifies itself with the MigAz user agent.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: userAgentTransport{next: http.DefaultTransport},
	}
}

type userAgentTransport struct {
	next http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", audit.UserAgent())
	return t.next.RoundTrip(req)
}
