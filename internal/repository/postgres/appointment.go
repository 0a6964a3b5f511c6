package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

const appointmentColumns = `id, consultation_id, doctor_id, patient_id, status, created_at, updated_at`

func (r *appointmentRepository) CreateIfAbsent(ctx context.Context, apt *model.Appointment) (bool, error) {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (consultation_id) DO NOTHING
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		apt.ID,
		apt.ConsultationID,
		apt.DoctorID,
		apt.PatientID,
		apt.Status,
		apt.Timestamp,
		apt.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *appointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	return r.getOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
}

func (r *appointmentRepository) GetByConsultation(ctx context.Context, consultationID string) (*model.Appointment, error) {
	return r.getOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE consultation_id = $1`, consultationID)
}

func (r *appointmentRepository) getOne(ctx context.Context, query string, arg string) (*model.Appointment, error) {
	var apt model.Appointment
	if err := r.GetDB().GetContext(ctx, &apt, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id string, next model.AppointmentStatus) (*model.Appointment, error) {
	from := model.AllowedPredecessors(next)
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	var apt model.Appointment
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = $2, updated_at = $3
			WHERE id = $1 AND status = ANY($4)
			RETURNING ` + appointmentColumns
		err := tx.GetContext(ctx, &apt, query, id, next, time.Now().UTC(), pq.Array(allowed))
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("failed to check appointment: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrInvalidTransition
	})
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY created_at DESC
	`
	var appointments []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}
