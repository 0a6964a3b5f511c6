package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/messaging"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
)

const publishTimeout = 2 * time.Second

// Service is the append-only trail of agent interactions. Logging never
// fails the caller: problems are reported through the returned LogResult.
type Service struct {
	repo      repository.AuditRepository
	ids       idgen.Provider
	publisher messaging.Publisher
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

// WithPublisher relays every recorded entry to a broker channel.
func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo repository.AuditRepository, ids idgen.Provider, log *logger.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		ids:     ids,
		logger:  log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogInteraction records a snapshot of payload and response. Later changes
// to either value do not affect the stored entry.
func (s *Service) LogInteraction(ctx context.Context, agentName, userID string, payload, response interface{}, success bool) (result model.LogResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(fmt.Errorf("%v", r), "audit logging panicked", "agent", agentName)
			result = model.LogResult{Logged: false, LogID: model.LogFailedID}
		}
	}()

	status := model.InteractionSuccess
	if !success {
		status = model.InteractionFailure
	}

	payloadJSON, err := snapshot(payload)
	if err != nil {
		return s.failed(err, agentName, "payload")
	}
	responseJSON, err := snapshot(response)
	if err != nil {
		return s.failed(err, agentName, "response")
	}

	entry := &model.LogEntry{
		ID:        s.ids.NewID(idgen.PrefixLog),
		Timestamp: s.now(),
		AgentName: agentName,
		UserID:    userID,
		Payload:   payloadJSON,
		Response:  responseJSON,
		Status:    status,
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return s.failed(err, agentName, "store")
	}
	s.metrics.ObserveAudit(agentName, string(status))

	s.publish(ctx, entry)

	return model.LogResult{Logged: true, LogID: entry.ID}
}

// GetLogs returns a copy of every entry in insertion order.
func (s *Service) GetLogs(ctx context.Context) ([]model.LogEntry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func (s *Service) publish(ctx context.Context, entry *model.LogEntry) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, messaging.ChannelAgentInteractions, entry); err != nil {
		s.logger.Error(err, "failed to relay audit entry", "log_id", entry.ID)
	}
}

func (s *Service) failed(err error, agentName, stage string) model.LogResult {
	s.logger.Error(err, "failed to record agent interaction", "agent", agentName, "stage", stage)
	s.metrics.ObserveAudit(agentName, "ERROR")
	return model.LogResult{Logged: false, LogID: model.LogFailedID}
}

func snapshot(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
