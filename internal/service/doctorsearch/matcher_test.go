package doctorsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

func intPtr(i int) *int { return &i }

func doctor(id, specialization string, status model.UserStatus) *model.User {
	return &model.User{
		ID:              id,
		Name:            "Dr. " + id,
		Role:            model.RoleDoctor,
		Status:          status,
		Specialization:  specialization,
		STRNumber:       "STR-" + id,
		ExperienceYears: intPtr(5),
		Clinic:          "Klinik " + id,
	}
}

type fakeDirectory struct {
	users []*model.User
	calls int
	err   error
}

func (f *fakeDirectory) ListUsers(ctx context.Context) ([]*model.User, error) {
	f.calls++
	return f.users, f.err
}

func TestKeywords(t *testing.T) {
	kw := Keywords("Spesialis Jantung, Kardiologi")
	assert.Contains(t, kw, KeyCardiology)
	assert.Contains(t, kw, "spesialis")
	assert.Contains(t, kw, "kardiologi")

	kw = Keywords("Cardiologist")
	assert.Contains(t, kw, KeyCardiology)
	assert.Contains(t, kw, "cardiologist")

	kw = Keywords("GP")
	assert.Contains(t, kw, KeyGeneral)
	assert.NotContains(t, kw, "gp")

	assert.Empty(t, Keywords(""))
	assert.Empty(t, Keywords(" , - "))
}

func TestMatch_CardiologistFindsHeartSpecialistOnly(t *testing.T) {
	directory := []*model.User{
		doctor("D001", "Dokter Umum", model.UserStatusActive),
		doctor("D003", "Spesialis Jantung", model.UserStatusActive),
	}

	results := Match("Cardiologist", directory)

	require.Len(t, results, 1)
	assert.Equal(t, "D003", results[0].ID)
	assert.Equal(t, "Spesialis Jantung", results[0].Specialist)
}

func TestMatch_OnlyActiveDoctors(t *testing.T) {
	directory := []*model.User{
		doctor("D010", "Spesialis Anak", model.UserStatusActive),
		doctor("D002", "Dokter Anak", model.UserStatusPending),
		{ID: "U001", Role: model.RolePatient, Status: model.UserStatusActive, Specialization: "Anak"},
	}

	results := Match("Pediatrician", directory)

	require.Len(t, results, 1)
	assert.Equal(t, "D010", results[0].ID)
	assert.True(t, results[0].IsActive)
	assert.True(t, results[0].IsVerified)
}

func TestMatch_EmptyAndNullQueries(t *testing.T) {
	directory := []*model.User{doctor("D001", "Dokter Umum", model.UserStatusActive)}

	for _, q := range []string{"", "   ", "null", "NULL", " Null "} {
		results := Match(q, directory)
		assert.NotNil(t, results, q)
		assert.Empty(t, results, q)
	}
}

func TestMatch_GeneralPractice(t *testing.T) {
	directory := []*model.User{
		doctor("D001", "Dokter Umum", model.UserStatusActive),
		doctor("D003", "Spesialis Jantung", model.UserStatusActive),
		doctor("D006", "Bedah Umum", model.UserStatusActive),
		doctor("D007", "General Surgeon", model.UserStatusActive),
	}

	results := Match("General Practitioner", directory)

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"D001", "D006", "D007"}, ids)
}

func TestMatch_SharedRawTokenMatches(t *testing.T) {
	directory := []*model.User{doctor("D003", "Spesialis Jantung", model.UserStatusActive)}

	results := Match("Spesialis Anak", directory)
	assert.Len(t, results, 1)
}

func TestToResult_Defaults(t *testing.T) {
	u := &model.User{ID: "D100", Name: "Dr. X", Role: model.RoleDoctor, Status: model.UserStatusActive}

	r := toResult(u)
	assert.Equal(t, DefaultSpecialistLabel, r.Specialist)
	assert.Equal(t, 0, r.ExperienceYears)
	assert.False(t, r.IsVerified)
	assert.True(t, r.IsActive)
	assert.Empty(t, r.Clinic)
}

func TestService_FindMatchingDoctors(t *testing.T) {
	dir := &fakeDirectory{users: []*model.User{
		doctor("D001", "Dokter Umum", model.UserStatusActive),
		doctor("D003", "Spesialis Jantung", model.UserStatusActive),
	}}
	svc := NewService(dir, Config{}, logger.Nop(), nil)
	ctx := context.Background()

	out, err := svc.FindMatchingDoctors(ctx, "null")
	require.NoError(t, err)
	assert.Empty(t, out.Doctors)
	assert.Equal(t, 0, dir.calls)

	out, err = svc.FindMatchingDoctors(ctx, "Kardiolog")
	require.NoError(t, err)
	require.Len(t, out.Doctors, 1)
	assert.Equal(t, "D003", out.Doctors[0].ID)

	_, err = svc.FindMatchingDoctors(ctx, "Dokter Umum")
	require.NoError(t, err)
	assert.Equal(t, 1, dir.calls, "directory snapshot should be cached")

	svc.Invalidate()
	_, err = svc.FindMatchingDoctors(ctx, "Dokter Umum")
	require.NoError(t, err)
	assert.Equal(t, 2, dir.calls)
}

func TestService_DirectoryError(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("directory down")}
	svc := NewService(dir, Config{}, logger.Nop(), nil)

	_, err := svc.FindMatchingDoctors(context.Background(), "Cardiologist")
	assert.Error(t, err)
}
