package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/messaging"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
)

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

type RelayConfig struct {
	Channel    string
	MaxRetries int
	RetryDelay time.Duration
}

// AuditRelay copies agent interaction entries published by the API into
// durable storage.
type AuditRelay struct {
	sub     Subscriber
	repo    repository.AuditRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
	cfg     RelayConfig
	sleep   func(context.Context, time.Duration) error
}

func NewAuditRelay(sub Subscriber, repo repository.AuditRepository, cfg RelayConfig, log *logger.Logger, m *metrics.Metrics) *AuditRelay {
	if cfg.Channel == "" {
		cfg.Channel = messaging.ChannelAgentInteractions
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &AuditRelay{
		sub:     sub,
		repo:    repo,
		logger:  log.With("component", "audit_relay"),
		metrics: m,
		cfg:     cfg,
		sleep:   sleepContext,
	}
}

// Start blocks until ctx is cancelled or the subscription closes.
func (w *AuditRelay) Start(ctx context.Context) error {
	messages, err := w.sub.Subscribe(ctx, w.cfg.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.cfg.Channel, err)
	}

	w.logger.Info("Relay started", "channel", w.cfg.Channel)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Relay shutting down")
			return nil
		case msg, ok := <-messages:
			if !ok {
				w.logger.Warn("Subscription closed")
				return nil
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *AuditRelay) handle(ctx context.Context, msg []byte) {
	var entry model.LogEntry
	if err := json.Unmarshal(msg, &entry); err != nil {
		w.logger.Error(err, "Dropping malformed audit message")
		w.metrics.ObserveAudit("relay", "malformed")
		return
	}
	if entry.ID == "" {
		w.logger.Warn("Dropping audit message without id", "agent", entry.AgentName)
		w.metrics.ObserveAudit("relay", "malformed")
		return
	}

	var err error
	for attempt := 0; attempt < w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if w.sleep(ctx, time.Duration(attempt)*w.cfg.RetryDelay) != nil {
				return
			}
			w.logger.Warn("Retrying audit append", "log_id", entry.ID, "attempt", attempt+1)
		}
		if err = w.repo.Append(ctx, &entry); err == nil {
			w.metrics.ObserveAudit(entry.AgentName, string(entry.Status))
			return
		}
	}

	w.metrics.ObserveAudit("relay", "failed")
	w.logger.Error(err, "Failed to store audit entry after retries", "log_id", entry.ID)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
