package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/repository"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

// AuditRetention prunes interaction logs older than the retention window.
type AuditRetention struct {
	repo            repository.AuditRepository
	retentionDays   int
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewAuditRetention(repo repository.AuditRepository, retentionDays int, cleanupInterval time.Duration, log *logger.Logger) *AuditRetention {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}
	return &AuditRetention{
		repo:            repo,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          log.With("component", "audit_retention"),
		now:             time.Now,
	}
}

// Start runs until ctx is cancelled. It returns at once when retention is disabled.
func (w *AuditRetention) Start(ctx context.Context) {
	if w.retentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Error cleaning up audit logs")
			}
		}
	}
}

func (w *AuditRetention) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	if rows > 0 {
		w.logger.Info("Cleaned up audit logs", "rows", rows, "cutoff", cutoff)
	}
	return rows, nil
}
