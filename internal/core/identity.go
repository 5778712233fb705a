package core

import "strings"

// UserInfo is the identity returned by a successful token acquisition.
// The provider remembers the last one to request continuity on later calls.
type UserInfo struct {
	// DisplayableID is the user's sign-in name (UPN or email).
	DisplayableID string `json:"displayable_id"`

	// UniqueID is the provider's immutable object id for the user.
	UniqueID string `json:"unique_id,omitempty"`

	// TenantID is the directory that authenticated the user.
	TenantID string `json:"tenant_id,omitempty"`

	GivenName        string `json:"given_name,omitempty"`
	FamilyName       string `json:"family_name,omitempty"`
	IdentityProvider string `json:"identity_provider,omitempty"`
}

// Redacted returns a label that is safe to write to logs, e.g. "a***@example.com".
func (u *UserInfo) Redacted() string {
	if u == nil || u.DisplayableID == "" {
		return "N/A"
	}
	return RedactIdentity(u.DisplayableID)
}

// SameUser compares displayable identifiers the way the identity provider does (case-insensitive).
func (u *UserInfo) SameUser(displayableID string) bool {
	return u != nil && strings.EqualFold(u.DisplayableID, displayableID)
}

func RedactIdentity(id string) string {
	if id == "" {
		return "N/A"
	}
	local, domain, found := strings.Cut(id, "@")
	if len(local) <= 1 {
		local = "*"
	} else {
		local = local[:1] + "***"
	}
	if !found {
		return local
	}
	return local + "@" + domain
}

// UserIdentifierType controls how an identity constraint is applied.
type UserIdentifierType int

const (
	// RequiredDisplayableID only accepts a token for exactly this user.
	RequiredDisplayableID UserIdentifierType = iota
	// OptionalDisplayableID is a hint; another user may sign in.
	OptionalDisplayableID
	// UniqueID matches on the provider object id.
	UniqueID
)

func (t UserIdentifierType) String() string {
	switch t {
	case RequiredDisplayableID:
		return "required_displayable_id"
	case OptionalDisplayableID:
		return "optional_displayable_id"
	case UniqueID:
		return "unique_id"
	default:
		return "unknown"
	}
}

// UserIdentifier constrains an acquisition to a specific user.
type UserIdentifier struct {
	ID   string
	Type UserIdentifierType
}

// Matches reports whether info satisfies the identifier.
func (i UserIdentifier) Matches(info *UserInfo) bool {
	if info == nil {
		return false
	}
	switch i.Type {
	case UniqueID:
		return info.UniqueID == i.ID
	default:
		return info.SameUser(i.ID)
	}
}
