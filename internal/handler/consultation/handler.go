package consultation

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/middleware"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type Runner interface {
	Run(ctx context.Context, userID string, input model.ConsultationInput) (*model.ConsultationResult, error)
}

type Store interface {
	GetConsultation(ctx context.Context, id string) (*model.ConsultationRecord, error)
	GetPatientHistory(ctx context.Context, patientID string) ([]*model.ConsultationRecord, error)
	ListConsultations(ctx context.Context) ([]*model.ConsultationRecord, error)
	BookAppointment(ctx context.Context, consultationID, doctorID string) (bool, error)
}

// Gate reports whether AI consultations are currently accepted.
type Gate interface {
	ConsultationAvailable(ctx context.Context) error
}

type Handler struct {
	runner Runner
	store  Store
	gate   Gate
	access middleware.AccessChecker
}

func NewHandler(runner Runner, store Store, gate Gate, access middleware.AccessChecker) *Handler {
	return &Handler{runner: runner, store: store, gate: gate, access: access}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.POST("",
			middleware.RequirePermission(h.access, model.PermRunConsultation, model.PermCreateRecord),
			h.RunConsultation)
		consultations.GET("",
			middleware.RequirePermission(h.access, model.PermViewSystemStats, model.PermViewQueue),
			h.ListConsultations)
		consultations.GET("/:id", h.GetConsultation)
		consultations.POST("/:id/appointment",
			middleware.RequirePermission(h.access, model.PermRunConsultation),
			h.BookAppointment)
	}

	r.GET("/patients/:id/consultations", h.GetPatientHistory)
}

func (h *Handler) RunConsultation(c *gin.Context) {
	if err := h.gate.ConsultationAvailable(c.Request.Context()); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var input model.ConsultationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	result, err := h.runner.Run(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) GetConsultation(c *gin.Context) {
	record, err := h.store.GetConsultation(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) ListConsultations(c *gin.Context) {
	records, err := h.store.ListConsultations(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) GetPatientHistory(c *gin.Context) {
	records, err := h.store.GetPatientHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, records)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	id := c.Param("id")
	booked, err := h.store.BookAppointment(c.Request.Context(), id, req.DoctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if !booked {
		httputil.RespondWithError(c, errors.NewNotFound("consultation", nil))
		return
	}

	httputil.RespondWithCreated(c, gin.H{"consultation_id": id, "doctor_id": req.DoctorID, "booked": true})
}
