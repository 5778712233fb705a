package core

import "time"

type AuditEntry struct {
	// ID is the correlation ID of the acquisition
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "token.acquire", "token.login")
	Action string `json:"action"`

	// Environment the provider is bound to
	Environment string `json:"environment"`

	// Authority of the context that was used
	Authority string `json:"authority,omitempty"`
	// Tenant requested by the caller, empty for the default context
	Tenant   string `json:"tenant,omitempty"`
	Resource string `json:"resource"`
	Prompt   string `json:"prompt"`

	// RequiredUser is the redacted identity constraint, if any
	RequiredUser string `json:"required_user,omitempty"`
	// User is the redacted identity returned by the acquisition
	User string `json:"user,omitempty"`

	// Outcome is one of "success", "empty" or "failure"
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`

	// TokenFingerprint allows correlating a token without storing it
	TokenFingerprint string    `json:"token_fingerprint,omitempty"`
	ExpiresOn        time.Time `json:"expires_on,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}
