// Package consultation stores consultation records and the appointments
// booked from them.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/email"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	apperrors "github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/metrics"
)

const notifyTimeout = 10 * time.Second

// UserLookup resolves patients and doctors for joins and notifications.
type UserLookup interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

type Service struct {
	consultations repository.ConsultationRepository
	appointments  repository.AppointmentRepository
	users         UserLookup
	mailer        email.Service
	ids           idgen.Provider
	logger        *logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewService(
	consultations repository.ConsultationRepository,
	appointments repository.AppointmentRepository,
	users UserLookup,
	mailer email.Service,
	ids idgen.Provider,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		consultations: consultations,
		appointments:  appointments,
		users:         users,
		mailer:        mailer,
		ids:           ids,
		logger:        log,
		metrics:       m,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) SaveConsultation(ctx context.Context, patientID string, input model.ConsultationInput, output model.ConsultationOutput, doctors []model.DoctorSearchResult) (*model.ConsultationRecord, error) {
	if doctors == nil {
		doctors = []model.DoctorSearchResult{}
	}
	output.Normalize()

	record := &model.ConsultationRecord{
		ID:               s.ids.NewID(idgen.PrefixConsultation),
		PatientID:        patientID,
		Input:            input,
		Result:           output,
		SuggestedDoctors: doctors,
		CreatedAt:        s.now(),
	}

	if err := s.consultations.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create consultation: %w", err)
	}
	return record, nil
}

// GetConsultation returns the record joined with its appointment.
func (s *Service) GetConsultation(ctx context.Context, id string) (*model.ConsultationRecord, error) {
	record, err := s.consultations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("consultation", err)
		}
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	if err := s.attachAppointment(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetPatientHistory lists a patient's consultations, newest first.
func (s *Service) GetPatientHistory(ctx context.Context, patientID string) ([]*model.ConsultationRecord, error) {
	records, err := s.consultations.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return s.joinAppointments(ctx, records)
}

// ListConsultations lists every consultation, newest first.
func (s *Service) ListConsultations(ctx context.Context) ([]*model.ConsultationRecord, error) {
	records, err := s.consultations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return s.joinAppointments(ctx, records)
}

// BookAppointment links the consultation to doctorID. It returns false when
// the consultation does not exist. Booking an already booked consultation
// succeeds without creating a second appointment.
func (s *Service) BookAppointment(ctx context.Context, consultationID, doctorID string) (bool, error) {
	if strings.TrimSpace(doctorID) == "" {
		return false, apperrors.NewValidation("doctor_id", "doctor_id is required")
	}

	record, err := s.consultations.Get(ctx, consultationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("consultation not found during booking", "consultation_id", consultationID)
			s.metrics.ObserveBooking("not_found")
			return false, nil
		}
		return false, fmt.Errorf("failed to get consultation: %w", err)
	}

	now := s.now()
	apt := &model.Appointment{
		ID:             s.ids.NewID(idgen.PrefixAppointment),
		ConsultationID: consultationID,
		DoctorID:       doctorID,
		PatientID:      record.PatientID,
		Status:         model.AppointmentStatusPending,
		Timestamp:      now,
		UpdatedAt:      now,
	}

	created, err := s.appointments.CreateIfAbsent(ctx, apt)
	if err != nil {
		s.metrics.ObserveBooking("error")
		return false, fmt.Errorf("failed to create appointment: %w", err)
	}
	if !created {
		s.logger.Debug("appointment already exists", "consultation_id", consultationID)
		s.metrics.ObserveBooking("duplicate")
		return true, nil
	}

	s.metrics.ObserveBooking("created")
	s.logger.Info("appointment created", "appointment_id", apt.ID, "consultation_id", consultationID, "doctor_id", doctorID)
	s.notifyDoctor(ctx, apt, record)
	return true, nil
}

// UpdateAppointmentStatus returns false when the appointment does not exist.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status model.AppointmentStatus) (bool, error) {
	if !status.Valid() {
		return false, apperrors.NewValidation("status", "status must be one of [PENDING CONFIRMED COMPLETED CANCELLED]")
	}

	_, err := s.appointments.TransitionStatus(ctx, appointmentID, status)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	case errors.Is(err, repository.ErrInvalidTransition):
		return false, apperrors.NewBadRequest(fmt.Sprintf("appointment cannot move to %s", status), err)
	default:
		return false, fmt.Errorf("failed to update appointment: %w", err)
	}
}

// GetDoctorAppointments joins a doctor's appointments with patient and
// consultation details, newest first.
func (s *Service) GetDoctorAppointments(ctx context.Context, doctorID string) ([]model.DoctorAppointment, error) {
	apts, err := s.appointments.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	out := make([]model.DoctorAppointment, 0, len(apts))
	for _, apt := range apts {
		joined := model.DoctorAppointment{
			AppointmentID: apt.ID,
			Status:        apt.Status,
			Timestamp:     apt.Timestamp,
			Patient:       s.patientSummary(ctx, apt.PatientID),
		}

		record, err := s.consultations.Get(ctx, apt.ConsultationID)
		switch {
		case err == nil:
			joined.Consultation = summarize(record)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("failed to get consultation: %w", err)
		}

		out = append(out, joined)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Service) patientSummary(ctx context.Context, patientID string) model.PatientSummary {
	u, err := s.users.Get(ctx, patientID)
	if err != nil {
		return model.UnknownPatient
	}
	return model.PatientSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func summarize(record *model.ConsultationRecord) *model.ConsultationSummary {
	condition := record.Result.FirstCondition()
	if condition == "" {
		condition = "Undiagnosed"
	}
	age := 0
	if record.Input.Age != nil {
		age = *record.Input.Age
	}
	return &model.ConsultationSummary{
		ID:                 record.ID,
		Summary:            record.Result.Analysis,
		Urgency:            record.Result.UrgencyLevel,
		Symptoms:           record.Input.Symptoms,
		PrimaryCondition:   condition,
		Age:                age,
		Gender:             record.Input.Gender,
		Duration:           record.Input.Duration,
		Notes:              record.Input.Notes,
		PossibleConditions: record.Result.PossibleConditions,
		RecommendedActions: record.Result.RecommendedActions,
	}
}

func (s *Service) joinAppointments(ctx context.Context, records []*model.ConsultationRecord) ([]*model.ConsultationRecord, error) {
	for _, r := range records {
		if err := s.attachAppointment(ctx, r); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Service) attachAppointment(ctx context.Context, record *model.ConsultationRecord) error {
	apt, err := s.appointments.GetByConsultation(ctx, record.ID)
	switch {
	case err == nil:
		record.Appointment = apt
	case errors.Is(err, repository.ErrNotFound):
		record.Appointment = nil
	default:
		return fmt.Errorf("failed to get appointment: %w", err)
	}
	return nil
}

// notifyDoctor e-mails the booked doctor. Failures are logged only.
func (s *Service) notifyDoctor(ctx context.Context, apt *model.Appointment, record *model.ConsultationRecord) {
	if s.mailer == nil {
		return
	}

	doctor, err := s.users.Get(ctx, apt.DoctorID)
	if err != nil || doctor.Email == "" {
		s.logger.Warn("cannot notify doctor, not in directory", "doctor_id", apt.DoctorID)
		return
	}
	patient := s.patientSummary(ctx, apt.PatientID)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err = s.mailer.SendAppointmentBooked(sendCtx, doctor.Email, email.AppointmentNotice{
		AppointmentID:  apt.ID,
		ConsultationID: record.ID,
		DoctorName:     doctor.Name,
		PatientName:    patient.Name,
		Urgency:        string(record.Result.UrgencyLevel),
		Condition:      record.Result.FirstCondition(),
		BookedAt:       apt.Timestamp,
	})
	if err != nil {
		s.logger.Error(err, "failed to notify doctor", "appointment_id", apt.ID)
	}
}
