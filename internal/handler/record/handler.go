package record

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/middleware"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type Service interface {
	CreatePrescription(ctx context.Context, patientID string, req model.CreatePrescriptionRequest) (*model.MedicalTimelineItem, error)
	GetPatientTimeline(ctx context.Context, patientID string) ([]model.MedicalTimelineItem, error)
	GetDoctorPatients(ctx context.Context, doctorID string) ([]model.DoctorPatient, error)
	GetGlobalStats(ctx context.Context) (*model.GlobalStats, error)
}

type Handler struct {
	service Service
	access  middleware.AccessChecker
}

func NewHandler(service Service, access middleware.AccessChecker) *Handler {
	return &Handler{service: service, access: access}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients/:id")
	{
		patients.GET("/timeline", h.GetTimeline)
		patients.POST("/prescriptions",
			middleware.RequirePermission(h.access, model.PermWritePrescription),
			h.CreatePrescription)
	}

	r.GET("/doctors/:id/patients",
		middleware.RequirePermission(h.access, model.PermViewPatients),
		h.ListDoctorPatients)
	r.GET("/records/stats",
		middleware.RequirePermission(h.access, model.PermViewSystemStats),
		h.GetGlobalStats)
}

func (h *Handler) GetTimeline(c *gin.Context) {
	items, err := h.service.GetPatientTimeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	item, err := h.service.CreatePrescription(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, item)
}

func (h *Handler) ListDoctorPatients(c *gin.Context) {
	patients, err := h.service.GetDoctorPatients(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) GetGlobalStats(c *gin.Context) {
	stats, err := h.service.GetGlobalStats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, stats)
}
