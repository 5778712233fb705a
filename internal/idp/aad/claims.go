package aad

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arneg82/migAz/internal/core"
)

type idTokenClaims struct {
	jwt.RegisteredClaims

	UPN               string `json:"upn"`
	UniqueName        string `json:"unique_name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	ObjectID          string `json:"oid"`
	TenantID          string `json:"tid"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	IdentityProvider  string `json:"idp"`
}

// parseIDToken extracts the user from an ID token without verifying its signature.
// The token was received directly from the token endpoint over TLS.
// It returns nil for an empty token (app-only grants).
func parseIDToken(raw string) (*core.UserInfo, error) {
	if raw == "" {
		return nil, nil
	}

	var claims idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("parsing id token: %w", err)
	}

	info := &core.UserInfo{
		DisplayableID:    firstNonEmpty(claims.UPN, claims.UniqueName, claims.PreferredUsername, claims.Email),
		UniqueID:         firstNonEmpty(claims.ObjectID, claims.Subject),
		TenantID:         claims.TenantID,
		GivenName:        claims.GivenName,
		FamilyName:       claims.FamilyName,
		IdentityProvider: firstNonEmpty(claims.IdentityProvider, claims.Issuer),
	}
	if info.DisplayableID == "" && info.UniqueID == "" {
		return nil, fmt.Errorf("id token carries no user identifier")
	}
	return info, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
