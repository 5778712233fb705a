package audit

import "github.com/arneg82/migAz/internal/core"

var _ core.Auditor = NoopAuditor{}

// NoopAuditor discards every entry. Used when auditing is disabled in the config.
type NoopAuditor struct{}

func NewNoopAuditor() NoopAuditor {
	return NoopAuditor{}
}

func (NoopAuditor) Log(core.AuditEntry) error { return nil }

func (NoopAuditor) Close() error { return nil }
