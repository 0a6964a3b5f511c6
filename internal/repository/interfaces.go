package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidTransition is returned when an appointment status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// All repository interfaces in one file
type (
	// UserRepository is the user directory.
	UserRepository interface {
		List(ctx context.Context) ([]*model.User, error)
		Get(ctx context.Context, id string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Create(ctx context.Context, user *model.User) error
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id string) error
	}

	// ConsultationRepository stores consultation records. Lists are newest first.
	ConsultationRepository interface {
		Create(ctx context.Context, record *model.ConsultationRecord) error
		Get(ctx context.Context, id string) (*model.ConsultationRecord, error)
		ListByPatient(ctx context.Context, patientID string) ([]*model.ConsultationRecord, error)
		List(ctx context.Context) ([]*model.ConsultationRecord, error)
	}

	// AppointmentRepository stores at most one appointment per consultation.
	AppointmentRepository interface {
		// CreateIfAbsent inserts apt unless an appointment already exists for its
		// consultation. It reports whether apt was inserted.
		CreateIfAbsent(ctx context.Context, apt *model.Appointment) (bool, error)
		Get(ctx context.Context, id string) (*model.Appointment, error)
		GetByConsultation(ctx context.Context, consultationID string) (*model.Appointment, error)
		// TransitionStatus atomically moves an appointment to next if the
		// current status allows it.
		TransitionStatus(ctx context.Context, id string, next model.AppointmentStatus) (*model.Appointment, error)
		ListByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error)
	}

	// AuditRepository is an append-only agent interaction log, oldest first.
	// DeleteBefore exists for the retention job and is never called by the API.
	AuditRepository interface {
		Append(ctx context.Context, entry *model.LogEntry) error
		List(ctx context.Context) ([]model.LogEntry, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	SettingsRepository interface {
		Get(ctx context.Context) (model.SystemSettings, error)
		Save(ctx context.Context, settings model.SystemSettings) error
	}

	// PrescriptionRepository stores doctor-written prescriptions. Lists are newest first.
	PrescriptionRepository interface {
		Create(ctx context.Context, rx *model.PrescriptionRecord) error
		ListByPatient(ctx context.Context, patientID string) ([]*model.PrescriptionRecord, error)
		List(ctx context.Context) ([]*model.PrescriptionRecord, error)
	}
)
