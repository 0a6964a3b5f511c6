package medical

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthtown-api/internal/email"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository"
	"github.com/jwalitptl/healthtown-api/internal/repository/memory"
	"github.com/jwalitptl/healthtown-api/internal/service/consultation"
	apperrors "github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
	"github.com/jwalitptl/healthtown-api/pkg/security"
)

type fixture struct {
	svc           *Service
	consultations *consultation.Service
	rxRepo        repository.PrescriptionRepository
}

func newFixture(t *testing.T, enc security.Encryptor) *fixture {
	t.Helper()
	log := logger.Nop()
	ids := idgen.NewSequence()
	users := memory.NewUserRepository([]*model.User{
		{ID: "U001", Name: "Sarah", Email: "sarah@healthtown.test", Role: model.RolePatient, Status: model.UserStatusActive},
	})
	store := consultation.NewService(memory.NewConsultationRepository(), memory.NewAppointmentRepository(), users, email.NewNopService(log), ids, log, nil)
	rxRepo := memory.NewPrescriptionRepository()

	return &fixture{
		svc:           NewService(store, rxRepo, enc, ids, log),
		consultations: store,
		rxRepo:        rxRepo,
	}
}

func (f *fixture) consult(t *testing.T, patientID string, out model.ConsultationOutput) *model.ConsultationRecord {
	t.Helper()
	in := model.ConsultationInput{Age: model.IntPtr(40), Symptoms: []string{"headache"}, Duration: "1 day", PainLevel: 5}
	rec, err := f.consultations.SaveConsultation(context.Background(), patientID, in, out, nil)
	require.NoError(t, err)
	return rec
}

func TestTimelineStatus(t *testing.T) {
	cases := map[model.AppointmentStatus]model.RecordStatus{
		model.AppointmentStatusPending:   model.RecordStatusPending,
		model.AppointmentStatusConfirmed: model.RecordStatusActive,
		model.AppointmentStatusCompleted: model.RecordStatusCompleted,
		model.AppointmentStatusCancelled: model.RecordStatusCancelled,
	}
	for apt, want := range cases {
		assert.Equal(t, want, TimelineStatus(&model.Appointment{Status: apt}), apt)
	}
	assert.Equal(t, model.RecordStatusPending, TimelineStatus(nil))
}

func TestFromConsultation(t *testing.T) {
	f := newFixture(t, nil)
	long := strings.Repeat("a", 130)
	rec := &model.ConsultationRecord{
		ID:        "CONS-9",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Result: model.ConsultationOutput{
			Analysis:              long,
			PossibleConditions:    []string{"Migraine", "Tension headache"},
			RecommendedActions:    []string{"Rest"},
			RecommendedSpecialist: model.StringPtr("Spesialis Syaraf"),
			UrgencyLevel:          model.UrgencyHigh,
			PrimaryAction:         model.PrimaryAction{Category: model.ActionDoctorConsult, Reason: "r", NextStep: "n"},
		},
		Appointment: &model.Appointment{Status: model.AppointmentStatusConfirmed},
	}

	item := f.svc.FromConsultation(rec)
	assert.Equal(t, "Migraine", item.Title)
	assert.Equal(t, "Referral: Spesialis Syaraf", item.Provider)
	assert.Equal(t, strings.Repeat("a", 120)+"...", item.Summary)
	assert.Equal(t, []string{"HIGH", "Migraine"}, item.Tags)
	assert.Equal(t, model.RecordStatusActive, item.Status)
	assert.Equal(t, model.RecordConsultation, item.Type)
	assert.Equal(t, rec.CreatedAt, item.Date)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(item.Details), &details))
	assert.Equal(t, long, details["analysis"])
	assert.Contains(t, details, "primary_action")
}

func TestFromConsultation_Defaults(t *testing.T) {
	f := newFixture(t, nil)
	item := f.svc.FromConsultation(&model.ConsultationRecord{ID: "CONS-1"})

	assert.Equal(t, "General Consultation", item.Title)
	assert.Equal(t, "AI Health Assistant", item.Provider)
	assert.Equal(t, "No analysis available", item.Summary)
	assert.Equal(t, []string{"LOW"}, item.Tags)
	assert.Equal(t, model.RecordStatusPending, item.Status)
	assert.False(t, item.Date.IsZero())
}

func TestGetPatientTimeline_MergesNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { clock = clock.Add(time.Hour); return clock }

	rec := f.consult(t, "U001", model.ConsultationOutput{Analysis: "ok", UrgencyLevel: model.UrgencyLow})
	f.consult(t, "U002", model.ConsultationOutput{Analysis: "other patient"})

	rx, err := f.svc.CreatePrescription(ctx, "U001", model.CreatePrescriptionRequest{
		DoctorName: "Dr. Budi", Summary: "Amoxicillin 500mg", Details: `{"dose":"3x1"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Prescription", rx.Title)
	assert.Equal(t, model.RecordStatusActive, rx.Status)
	assert.Equal(t, []string{"New", "Prescription"}, rx.Tags)

	_, err = f.consultations.BookAppointment(ctx, rec.ID, "D001")
	require.NoError(t, err)

	items, err := f.svc.GetPatientTimeline(ctx, "U001")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byType := map[model.RecordType]model.MedicalTimelineItem{}
	for _, it := range items {
		byType[it.Type] = it
	}
	assert.Equal(t, `{"dose":"3x1"}`, byType[model.RecordPrescription].Details)
	assert.Equal(t, model.RecordStatusPending, byType[model.RecordConsultation].Status)
	assert.False(t, items[0].Date.Before(items[1].Date))
}

func TestCreatePrescription_EncryptsAtRest(t *testing.T) {
	enc, err := security.NewEncryptorFromKey(base64.StdEncoding.EncodeToString([]byte("0123456789abcdef")))
	require.NoError(t, err)
	f := newFixture(t, enc)
	ctx := context.Background()

	_, err = f.svc.CreatePrescription(ctx, "U001", model.CreatePrescriptionRequest{
		DoctorName: "Dr. Budi", Summary: "Paracetamol", Details: "secret dosage",
	})
	require.NoError(t, err)

	stored, err := f.rxRepo.ListByPatient(ctx, "U001")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEqual(t, "secret dosage", stored[0].Details)

	items, err := f.svc.GetPatientTimeline(ctx, "U001")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "secret dosage", items[0].Details)
}

func TestCreatePrescription_Validation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.CreatePrescription(context.Background(), "U001", model.CreatePrescriptionRequest{DoctorName: "Dr"})
	assert.Equal(t, "summary", apperrors.FieldOf(err))

	_, err = f.svc.CreatePrescription(context.Background(), "", model.CreatePrescriptionRequest{Summary: "x"})
	assert.Equal(t, "patient_id", apperrors.FieldOf(err))
}

func TestGetDoctorPatients_Unique(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first := f.consult(t, "U001", model.ConsultationOutput{Analysis: "a", PossibleConditions: []string{"Flu"}})
	second := f.consult(t, "U001", model.ConsultationOutput{Analysis: "b"})
	ghost := f.consult(t, "GHOST", model.ConsultationOutput{Analysis: "c"})
	for _, id := range []string{first.ID, second.ID, ghost.ID} {
		_, err := f.consultations.BookAppointment(ctx, id, "D001")
		require.NoError(t, err)
	}

	patients, err := f.svc.GetDoctorPatients(ctx, "D001")
	require.NoError(t, err)
	require.Len(t, patients, 2)

	byID := map[string]model.DoctorPatient{}
	for _, p := range patients {
		byID[p.ID] = p
		assert.Equal(t, "Patient", p.Status)
	}
	assert.Contains(t, byID, "U001")
	assert.Equal(t, "Unknown Patient", byID["UNKNOWN"].Name)
	assert.Equal(t, "Undiagnosed", byID["UNKNOWN"].Condition)
}

func TestGetGlobalStats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.consult(t, "U001", model.ConsultationOutput{Analysis: "a"})
	f.consult(t, "U002", model.ConsultationOutput{Analysis: "b"})
	_, err := f.svc.CreatePrescription(ctx, "U002", model.CreatePrescriptionRequest{DoctorName: "Dr", Summary: "x"})
	require.NoError(t, err)

	stats, err := f.svc.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Len(t, stats.Prescriptions, 1)
	assert.Len(t, stats.Consultations, 2)
}
