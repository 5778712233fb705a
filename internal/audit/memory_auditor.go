package audit

import (
	"sync"

	"github.com/arneg82/migAz/internal/core"
)

var _ core.Auditor = (*InMemoryAuditor)(nil)

// InMemoryAuditor keeps acquisition events for the lifetime of the process.
type InMemoryAuditor struct {
	mu      sync.Mutex
	entries []core.AuditEntry
}

func NewInMemoryAuditor() *InMemoryAuditor {
	return &InMemoryAuditor{
		entries: make([]core.AuditEntry, 0),
	}
}

func (i *InMemoryAuditor) Log(entry core.AuditEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries = append(i.entries, entry)
	return nil
}

// GetRecent returns up to limit entries, oldest first.
func (i *InMemoryAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limit > len(i.entries) {
		limit = len(i.entries)
	}
	entries := make([]core.AuditEntry, limit)
	copy(entries, i.entries[len(i.entries)-limit:])

	return entries, nil
}

// Find returns the last limit entries matching filter.
func (i *InMemoryAuditor) Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var matches []core.AuditEntry
	for _, entry := range i.entries {
		if filter(entry) {
			matches = append(matches, entry)
		}
	}
	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}
	return matches, nil
}

// ForTenant is a Find filter selecting entries of one tenant ("" is the default context).
func ForTenant(tenant string) func(core.AuditEntry) bool {
	return func(e core.AuditEntry) bool {
		return e.Tenant == tenant
	}
}

func (i *InMemoryAuditor) Close() error {
	return nil
}
