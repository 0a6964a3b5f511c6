package consultation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthtown-api/internal/email"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/idgen"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

type fakeMailer struct {
	mu      sync.Mutex
	notices []email.AppointmentNotice
	to      []string
	err     error
}

func (f *fakeMailer) SendAppointmentBooked(ctx context.Context, to string, n email.AppointmentNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.notices = append(f.notices, n)
	return f.err
}

func (f *fakeMailer) SendWelcome(ctx context.Context, to, name string) error { return nil }

func (f *fakeMailer) SendCustom(ctx context.Context, to, subject, content string) error { return nil }

func directory() []*model.User {
	return []*model.User{
		{ID: "U001", Name: "Sarah", Email: "sarah@healthtown.test", Role: model.RolePatient, Status: model.UserStatusActive},
		{ID: "D001", Name: "Dr. Budi", Email: "budi@healthtown.test", Role: model.RoleDoctor, Status: model.UserStatusActive},
	}
}

type fixture struct {
	svc    *Service
	mailer *fakeMailer
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{mailer: &fakeMailer{}, clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = NewService(
		memory.NewConsultationRepository(),
		memory.NewAppointmentRepository(),
		memory.NewUserRepository(directory()),
		f.mailer,
		idgen.NewSequence(),
		logger.Nop(),
		nil,
	)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func output(conditions ...string) model.ConsultationOutput {
	return model.ConsultationOutput{
		Analysis:           "Viral infection",
		PossibleConditions: conditions,
		UrgencyLevel:       model.UrgencyHigh,
	}
}

func input() model.ConsultationInput {
	return model.ConsultationInput{Age: model.IntPtr(30), Gender: "Female", Symptoms: []string{"fever"}, Duration: "2 days", PainLevel: 3}
}

func (f *fixture) save(t *testing.T, patientID string, conditions ...string) *model.ConsultationRecord {
	t.Helper()
	rec, err := f.svc.SaveConsultation(context.Background(), patientID, input(), output(conditions...), nil)
	require.NoError(t, err)
	return rec
}

func TestSaveConsultation(t *testing.T) {
	f := newFixture(t)
	rec := f.save(t, "U001", "Flu")

	assert.Equal(t, "CONS-1", rec.ID)
	assert.NotNil(t, rec.SuggestedDoctors)
	assert.NotNil(t, rec.Result.DangerSigns)

	got, err := f.svc.GetConsultation(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "U001", got.PatientID)
	assert.Nil(t, got.Appointment)
}

func TestGetConsultation_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetConsultation(context.Background(), "CONS-404")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBookAppointment_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.save(t, "U001", "Flu")

	ok, err := f.svc.BookAppointment(ctx, rec.ID, "D001")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.BookAppointment(ctx, rec.ID, "D002")
	require.NoError(t, err)
	assert.True(t, ok)

	apts, err := f.svc.GetDoctorAppointments(ctx, "D001")
	require.NoError(t, err)
	assert.Len(t, apts, 1)

	others, err := f.svc.GetDoctorAppointments(ctx, "D002")
	require.NoError(t, err)
	assert.Empty(t, others)

	require.Len(t, f.mailer.notices, 1)
	assert.Equal(t, []string{"budi@healthtown.test"}, f.mailer.to)
	assert.Equal(t, "Sarah", f.mailer.notices[0].PatientName)
}

func TestBookAppointment_ConcurrentSingleAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.save(t, "U001", "Flu")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.svc.BookAppointment(ctx, rec.ID, "D001")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	apts, err := f.svc.GetDoctorAppointments(ctx, "D001")
	require.NoError(t, err)
	assert.Len(t, apts, 1)
	assert.Len(t, f.mailer.notices, 1)
}

func TestBookAppointment_UnknownConsultation(t *testing.T) {
	f := newFixture(t)
	ok, err := f.svc.BookAppointment(context.Background(), "CONS-404", "D001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBookAppointment_MissingDoctor(t *testing.T) {
	f := newFixture(t)
	rec := f.save(t, "U001")
	_, err := f.svc.BookAppointment(context.Background(), rec.ID, " ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestBookAppointment_NotifyFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")
	rec := f.save(t, "U001")

	ok, err := f.svc.BookAppointment(context.Background(), rec.ID, "D001")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.save(t, "U001")
	_, err := f.svc.BookAppointment(ctx, rec.ID, "D001")
	require.NoError(t, err)

	history, err := f.svc.GetPatientHistory(ctx, "U001")
	require.NoError(t, err)
	require.NotNil(t, history[0].Appointment)
	aptID := history[0].Appointment.ID

	ok, err := f.svc.UpdateAppointmentStatus(ctx, aptID, model.AppointmentStatusConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.UpdateAppointmentStatus(ctx, aptID, model.AppointmentStatusPending)
	assert.False(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))

	ok, err = f.svc.UpdateAppointmentStatus(ctx, aptID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.UpdateAppointmentStatus(ctx, "APT-404", model.AppointmentStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.UpdateAppointmentStatus(ctx, aptID, model.AppointmentStatus("LOST"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetPatientHistory_NewestFirstWithAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.save(t, "U001", "Flu")
	second := f.save(t, "U001", "Migraine")
	f.save(t, "U002", "Other")

	_, err := f.svc.BookAppointment(ctx, first.ID, "D001")
	require.NoError(t, err)

	history, err := f.svc.GetPatientHistory(ctx, "U001")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Nil(t, history[0].Appointment)
	assert.Equal(t, first.ID, history[1].ID)
	require.NotNil(t, history[1].Appointment)
	assert.Equal(t, model.AppointmentStatusPending, history[1].Appointment.Status)

	all, err := f.svc.ListConsultations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetDoctorAppointments_Joins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	known := f.save(t, "U001")
	unknown := f.save(t, "GHOST", "Asthma")

	_, err := f.svc.BookAppointment(ctx, known.ID, "D001")
	require.NoError(t, err)
	_, err = f.svc.BookAppointment(ctx, unknown.ID, "D001")
	require.NoError(t, err)

	apts, err := f.svc.GetDoctorAppointments(ctx, "D001")
	require.NoError(t, err)
	require.Len(t, apts, 2)

	// newest first
	assert.Equal(t, model.UnknownPatient, apts[0].Patient)
	assert.Equal(t, "Asthma", apts[0].Consultation.PrimaryCondition)

	assert.Equal(t, "Sarah", apts[1].Patient.Name)
	assert.Equal(t, "Undiagnosed", apts[1].Consultation.PrimaryCondition)
	assert.Equal(t, 30, apts[1].Consultation.Age)
	assert.Equal(t, []string{"fever"}, apts[1].Consultation.Symptoms)
}
