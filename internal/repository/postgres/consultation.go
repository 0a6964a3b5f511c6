package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type consultationRepository struct {
	BaseRepository
}

func NewConsultationRepository(db *sqlx.DB) repository.ConsultationRepository {
	return &consultationRepository{NewBaseRepository(db)}
}

type consultationRow struct {
	ID               string    `db:"id"`
	PatientID        string    `db:"patient_id"`
	Input            []byte    `db:"input"`
	Result           []byte    `db:"result"`
	SuggestedDoctors []byte    `db:"suggested_doctors"`
	CreatedAt        time.Time `db:"created_at"`
}

func (row consultationRow) toModel() (*model.ConsultationRecord, error) {
	rec := &model.ConsultationRecord{
		ID:        row.ID,
		PatientID: row.PatientID,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.Input, &rec.Input); err != nil {
		return nil, fmt.Errorf("failed to decode consultation input: %w", err)
	}
	if err := json.Unmarshal(row.Result, &rec.Result); err != nil {
		return nil, fmt.Errorf("failed to decode consultation result: %w", err)
	}
	if len(row.SuggestedDoctors) > 0 {
		if err := json.Unmarshal(row.SuggestedDoctors, &rec.SuggestedDoctors); err != nil {
			return nil, fmt.Errorf("failed to decode suggested doctors: %w", err)
		}
	}
	return rec, nil
}

const consultationColumns = `id, patient_id, input, result, suggested_doctors, created_at`

func (r *consultationRepository) Create(ctx context.Context, record *model.ConsultationRecord) error {
	input, err := json.Marshal(record.Input)
	if err != nil {
		return fmt.Errorf("failed to encode consultation input: %w", err)
	}
	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to encode consultation result: %w", err)
	}
	doctors := record.SuggestedDoctors
	if doctors == nil {
		doctors = []model.DoctorSearchResult{}
	}
	suggested, err := json.Marshal(doctors)
	if err != nil {
		return fmt.Errorf("failed to encode suggested doctors: %w", err)
	}

	query := `
		INSERT INTO consultations (` + consultationColumns + `)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6)
	`
	_, err = r.GetDB().ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		string(input),
		string(result),
		string(suggested),
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id string) (*model.ConsultationRecord, error) {
	var row consultationRow
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE id = $1`
	if err := r.GetDB().GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return row.toModel()
}

func (r *consultationRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.ConsultationRecord, error) {
	query := `
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, query, patientID)
}

func (r *consultationRepository) List(ctx context.Context) ([]*model.ConsultationRecord, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

func (r *consultationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.ConsultationRecord, error) {
	var rows []consultationRow
	if err := r.GetDB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}

	out := make([]*model.ConsultationRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
