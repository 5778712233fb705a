package core

import "time"

const (
	// ClientID is the public client registered with the identity provider.
	ClientID = "1950a258-227b-4e31-a9cf-717495945fc2"

	// RedirectURL is the out-of-band redirect registered for ClientID.
	RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
)

// TokenResult is the result of a successful acquisition.
type TokenResult struct {
	// AccessToken is the bearer credential. Never log it, use a fingerprint.
	AccessToken string `json:"access_token"`

	TokenType string `json:"token_type"`

	// ExpiresOn indicates when AccessToken becomes invalid.
	ExpiresOn time.Time `json:"expires_on"`

	// RefreshToken may be empty depending on the grant.
	RefreshToken string `json:"-"`

	IDToken string `json:"-"`

	// TenantID is the directory that issued the token.
	TenantID string `json:"tenant_id,omitempty"`

	Resource  string `json:"resource"`
	Authority string `json:"authority"`

	// UserInfo is the authenticated identity, nil for app-only tokens.
	UserInfo *UserInfo `json:"user_info,omitempty"`
}

// Status distinguishes a successful acquisition from one that produced nothing.
// Failures are reported through the returned error instead.
type Status int

const (
	StatusEmpty Status = iota
	StatusSuccess
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "empty"
}

// Result is the outcome of a token acquisition that did not fail.
type Result struct {
	Status Status
	Token  TokenResult
}

func Success(token TokenResult) Result {
	return Result{Status: StatusSuccess, Token: token}
}

func Empty() Result {
	return Result{Status: StatusEmpty}
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// TokenRequest is everything the identity client needs for one acquisition.
type TokenRequest struct {
	// Authority is the tenant-specific authority URL of the context.
	Authority string

	// Resource identifies the protected resource, validated by the identity provider.
	Resource string

	ClientID    string
	RedirectURL string

	Prompt PromptParameters

	// User is nil when no identity constraint applies.
	User *UserIdentifier
}

// CachedToken is a token held by a TokenCache.
type CachedToken struct {
	Key       string
	Authority string
	Resource  string
	User      string
	Token     TokenResult
	CachedAt  time.Time
}

// Expired reports whether the access token is expired or expires within skew.
func (c CachedToken) Expired(now time.Time, skew time.Duration) bool {
	return !c.Token.ExpiresOn.After(now.Add(skew))
}
