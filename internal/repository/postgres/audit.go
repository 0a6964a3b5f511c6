package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}

// Append is idempotent on the entry id so relayed entries can be redelivered.
func (r *auditRepository) Append(ctx context.Context, entry *model.LogEntry) error {
	query := `
		INSERT INTO agent_interaction_logs (
			id, created_at, agent_name, user_id, payload, response, status
		) VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.AgentName,
		entry.UserID,
		jsonText(entry.Payload),
		jsonText(entry.Response),
		entry.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context) ([]model.LogEntry, error) {
	query := `
		SELECT id, created_at, agent_name, user_id, payload, response, status
		FROM agent_interaction_logs
		ORDER BY created_at ASC, id ASC
	`
	var entries []model.LogEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.GetDB().ExecContext(ctx, `DELETE FROM agent_interaction_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit entries: %w", err)
	}
	return res.RowsAffected()
}

func jsonText(raw []byte) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
