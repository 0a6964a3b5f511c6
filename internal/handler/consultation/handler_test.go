package consultation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthtown-api/internal/middleware"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/service/rbac"
	"github.com/jwalitptl/healthtown-api/pkg/errors"
)

type fakeRunner struct {
	userID string
	input  model.ConsultationInput
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, userID string, input model.ConsultationInput) (*model.ConsultationResult, error) {
	f.userID, f.input = userID, input
	if f.err != nil {
		return nil, f.err
	}
	return &model.ConsultationResult{SessionID: "CONS-1"}, nil
}

type fakeStore struct {
	booked map[string]string
}

func (f *fakeStore) GetConsultation(ctx context.Context, id string) (*model.ConsultationRecord, error) {
	if id != "CONS-1" {
		return nil, errors.NewNotFound("consultation", nil)
	}
	return &model.ConsultationRecord{ID: id}, nil
}

func (f *fakeStore) GetPatientHistory(ctx context.Context, patientID string) ([]*model.ConsultationRecord, error) {
	return []*model.ConsultationRecord{{ID: "CONS-1", PatientID: patientID}}, nil
}

func (f *fakeStore) ListConsultations(ctx context.Context) ([]*model.ConsultationRecord, error) {
	return []*model.ConsultationRecord{}, nil
}

func (f *fakeStore) BookAppointment(ctx context.Context, consultationID, doctorID string) (bool, error) {
	if consultationID != "CONS-1" {
		return false, nil
	}
	f.booked[consultationID] = doctorID
	return true, nil
}

type fakeGate struct{ err error }

func (g fakeGate) ConsultationAvailable(ctx context.Context) error { return g.err }

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(runner *fakeRunner, gate fakeGate) (*gin.Engine, *fakeStore) {
	gin.SetMode(gin.TestMode)
	store := &fakeStore{booked: map[string]string{}}
	r := gin.New()
	r.Use(middleware.Identity())
	NewHandler(runner, store, gate, rbac.NewService()).RegisterRoutes(r.Group("/api/v1"))
	return r, store
}

func do(t *testing.T, r *gin.Engine, method, path, role string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "P-2025-1")
	if role != "" {
		req.Header.Set(middleware.HeaderUserRole, role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func validBody() gin.H {
	return gin.H{
		"age":        30,
		"gender":     "female",
		"symptoms":   []string{"chest pain"},
		"duration":   "2 days",
		"pain_level": 6,
	}
}

func TestRunConsultation(t *testing.T) {
	runner := &fakeRunner{}
	r, _ := setup(runner, fakeGate{})

	w, resp := do(t, r, http.MethodPost, "/api/v1/consultations", "PATIENT", validBody())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", resp.Status)
	var result model.ConsultationResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "CONS-1", result.SessionID)
	assert.NotContains(t, string(resp.Data), "doctor_recommendations")
	assert.Equal(t, "P-2025-1", runner.userID)
	require.NotNil(t, runner.input.Age)
	assert.Equal(t, 30, *runner.input.Age)
}

func TestRunConsultation_Gated(t *testing.T) {
	r, _ := setup(&fakeRunner{}, fakeGate{err: errors.NewUnavailable("AI consultation is temporarily unavailable")})

	w, resp := do(t, r, http.MethodPost, "/api/v1/consultations", "PATIENT", validBody())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestRunConsultation_ValidationError(t *testing.T) {
	r, _ := setup(&fakeRunner{err: errors.NewValidation("symptoms", "symptoms must contain at least one entry")}, fakeGate{})

	w, resp := do(t, r, http.MethodPost, "/api/v1/consultations", "PATIENT", validBody())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "symptoms must contain at least one entry", resp.Message)
}

func TestRunConsultation_AdminForbidden(t *testing.T) {
	r, _ := setup(&fakeRunner{}, fakeGate{})

	w, _ := do(t, r, http.MethodPost, "/api/v1/consultations", "ADMIN", validBody())

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetConsultation(t *testing.T) {
	r, _ := setup(&fakeRunner{}, fakeGate{})

	w, _ := do(t, r, http.MethodGet, "/api/v1/consultations/CONS-1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/consultations/CONS-404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookAppointment(t *testing.T) {
	r, store := setup(&fakeRunner{}, fakeGate{})

	w, _ := do(t, r, http.MethodPost, "/api/v1/consultations/CONS-1/appointment", "PATIENT", gin.H{"doctor_id": "D001"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "D001", store.booked["CONS-1"])

	w, _ = do(t, r, http.MethodPost, "/api/v1/consultations/CONS-9/appointment", "PATIENT", gin.H{"doctor_id": "D001"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/consultations/CONS-1/appointment", "PATIENT", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPatientHistory(t *testing.T) {
	r, _ := setup(&fakeRunner{}, fakeGate{})

	w, resp := do(t, r, http.MethodGet, "/api/v1/patients/U001/consultations", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(resp.Data), `"patient_id":"U001"`)
}
