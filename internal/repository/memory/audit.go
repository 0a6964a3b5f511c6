package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type auditRepository struct {
	mu      sync.RWMutex
	entries []model.LogEntry
}

func NewAuditRepository() repository.AuditRepository {
	return &auditRepository{}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry.Clone())
	return nil
}

func (r *auditRepository) List(ctx context.Context) ([]model.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.LogEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Clone()
	}
	return out, nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := int64(len(r.entries) - len(kept))
	r.entries = kept
	return removed, nil
}
