package core

import "context"

// IdentityClient performs the actual exchange with the identity provider.
// Implementations: the OAuth2 device code client in idp/aad, fakes in tests.
type IdentityClient interface {
	// AcquireToken returns Success, Empty (no token and no error) or an error.
	AcquireToken(ctx context.Context, req TokenRequest) (Result, error)
}

// TokenCache holds acquired tokens for the lifetime of the process.
type TokenCache interface {
	// Get returns the entry for key and whether it was found.
	Get(ctx context.Context, key string) (CachedToken, bool, error)

	// Set stores (or replaces) an entry.
	Set(ctx context.Context, entry CachedToken) error

	// Invalidate removes the entry for key.
	Invalidate(ctx context.Context, key string) error

	// ListActive returns entries whose access token has not expired yet.
	ListActive(ctx context.Context) ([]CachedToken, error)

	// DeleteExpired removes expired entries without a refresh token.
	DeleteExpired(ctx context.Context) (int64, error)
}
