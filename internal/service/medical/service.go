package medical

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	apperrors "github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/security"
)

const (
	summaryLimit = 120

	defaultTitle    = "General Consultation"
	defaultProvider = "AI Health Assistant"
	defaultAnalysis = "No analysis available"
)

// ConsultationSource is the read side of the consultation store.
type ConsultationSource interface {
	GetPatientHistory(ctx context.Context, patientID string) ([]*model.ConsultationRecord, error)
	ListConsultations(ctx context.Context) ([]*model.ConsultationRecord, error)
	GetDoctorAppointments(ctx context.Context, doctorID string) ([]model.DoctorAppointment, error)
}

// Service builds the patient-facing medical timeline from consultations
// and doctor-written prescriptions. Prescription details are encrypted at rest.
type Service struct {
	consultations ConsultationSource
	prescriptions repository.PrescriptionRepository
	encryptor     security.Encryptor
	ids           idgen.Provider
	logger        *logger.Logger
	now           func() time.Time
}

func NewService(consultations ConsultationSource, prescriptions repository.PrescriptionRepository, encryptor security.Encryptor, ids idgen.Provider, log *logger.Logger) *Service {
	if encryptor == nil {
		encryptor = security.NopEncryptor{}
	}
	return &Service{
		consultations: consultations,
		prescriptions: prescriptions,
		encryptor:     encryptor,
		ids:           ids,
		logger:        log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreatePrescription(ctx context.Context, patientID string, req model.CreatePrescriptionRequest) (*model.MedicalTimelineItem, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, apperrors.NewValidation("patient_id", "patient_id is required")
	}
	if strings.TrimSpace(req.Summary) == "" {
		return nil, apperrors.NewValidation("summary", "summary is required")
	}

	item := model.MedicalTimelineItem{
		ID:       s.ids.NewID(idgen.PrefixPrescription),
		Date:     s.now(),
		Type:     model.RecordPrescription,
		Title:    "New Prescription",
		Provider: req.DoctorName,
		Summary:  req.Summary,
		Tags:     []string{"New", "Prescription"},
		Status:   model.RecordStatusActive,
		Details:  req.Details,
	}

	sealed, err := security.EncryptString(s.encryptor, req.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt prescription details: %w", err)
	}

	stored := &model.PrescriptionRecord{MedicalTimelineItem: item, PatientID: patientID}
	stored.Details = sealed
	if err := s.prescriptions.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	s.logger.Info("prescription created", "patient_id", patientID, "prescription_id", item.ID)
	return &item, nil
}

// GetPatientTimeline merges prescriptions and consultations, newest first.
func (s *Service) GetPatientTimeline(ctx context.Context, patientID string) ([]model.MedicalTimelineItem, error) {
	rxs, err := s.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	history, err := s.consultations.GetPatientHistory(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient history: %w", err)
	}

	items, err := s.openPrescriptions(rxs)
	if err != nil {
		return nil, err
	}
	for _, rec := range history {
		items = append(items, s.FromConsultation(rec))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	return items, nil
}

// GetDoctorPatients lists each patient once, in the order of the doctor's
// most recent appointments.
func (s *Service) GetDoctorPatients(ctx context.Context, doctorID string) ([]model.DoctorPatient, error) {
	apts, err := s.consultations.GetDoctorAppointments(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor appointments: %w", err)
	}

	seen := make(map[string]struct{}, len(apts))
	out := make([]model.DoctorPatient, 0, len(apts))
	for _, apt := range apts {
		if _, ok := seen[apt.Patient.ID]; ok {
			continue
		}
		seen[apt.Patient.ID] = struct{}{}

		condition := "General"
		if apt.Consultation != nil && apt.Consultation.PrimaryCondition != "" {
			condition = apt.Consultation.PrimaryCondition
		}
		out = append(out, model.DoctorPatient{
			ID:        apt.Patient.ID,
			Name:      apt.Patient.Name,
			Email:     apt.Patient.Email,
			LastVisit: apt.Timestamp,
			Condition: condition,
			Status:    "Patient",
		})
	}
	return out, nil
}

// GetGlobalStats returns every prescription and consultation for the admin view.
func (s *Service) GetGlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	rxs, err := s.prescriptions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	records, err := s.consultations.ListConsultations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}

	prescriptions, err := s.openPrescriptions(rxs)
	if err != nil {
		return nil, err
	}
	consultations := make([]model.MedicalTimelineItem, 0, len(records))
	for _, rec := range records {
		consultations = append(consultations, s.FromConsultation(rec))
	}

	return &model.GlobalStats{Prescriptions: prescriptions, Consultations: consultations}, nil
}

type consultationDetails struct {
	Analysis           string              `json:"analysis"`
	RecommendedActions []string            `json:"recommended_actions"`
	PossibleConditions []string            `json:"possible_conditions"`
	PrimaryAction      model.PrimaryAction `json:"primary_action"`
}

// FromConsultation projects a consultation, joined with its appointment,
// onto a timeline item.
func (s *Service) FromConsultation(rec *model.ConsultationRecord) model.MedicalTimelineItem {
	result := rec.Result

	title := result.FirstCondition()
	if title == "" {
		title = defaultTitle
	}

	provider := defaultProvider
	if specialist := result.Specialist(); specialist != "" {
		provider = "Referral: " + specialist
	}

	analysis := result.Analysis
	if strings.TrimSpace(analysis) == "" {
		analysis = defaultAnalysis
	}

	urgency := string(result.UrgencyLevel)
	if urgency == "" {
		urgency = string(model.UrgencyLow)
	}
	tags := []string{urgency}
	if len(result.PossibleConditions) > 0 && result.PossibleConditions[0] != "" {
		tags = append(tags, result.PossibleConditions[0])
	}

	date := rec.CreatedAt
	if date.IsZero() {
		date = s.now()
	}

	details, err := json.Marshal(consultationDetails{
		Analysis:           result.Analysis,
		RecommendedActions: result.RecommendedActions,
		PossibleConditions: result.PossibleConditions,
		PrimaryAction:      result.PrimaryAction,
	})
	if err != nil {
		s.logger.Error(err, "failed to encode consultation details", "consultation_id", rec.ID)
	}

	return model.MedicalTimelineItem{
		ID:       rec.ID,
		Date:     date,
		Type:     model.RecordConsultation,
		Title:    title,
		Provider: provider,
		Summary:  truncate(analysis, summaryLimit),
		Tags:     tags,
		Status:   TimelineStatus(rec.Appointment),
		Details:  string(details),
	}
}

// TimelineStatus maps a consultation's appointment onto a record status.
// A consultation without an appointment is pending.
func TimelineStatus(apt *model.Appointment) model.RecordStatus {
	if apt == nil {
		return model.RecordStatusPending
	}
	switch apt.Status {
	case model.AppointmentStatusConfirmed:
		return model.RecordStatusActive
	case model.AppointmentStatusCompleted:
		return model.RecordStatusCompleted
	case model.AppointmentStatusCancelled:
		return model.RecordStatusCancelled
	default:
		return model.RecordStatusPending
	}
}

func (s *Service) openPrescriptions(rxs []*model.PrescriptionRecord) ([]model.MedicalTimelineItem, error) {
	items := make([]model.MedicalTimelineItem, 0, len(rxs))
	for _, rx := range rxs {
		item := rx.MedicalTimelineItem
		details, err := security.DecryptString(s.encryptor, item.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt prescription %s: %w", item.ID, err)
		}
		item.Details = details
		items = append(items, item)
	}
	return items, nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
