package appointment

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/middleware"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/errors"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type Service interface {
	UpdateAppointmentStatus(ctx context.Context, appointmentID string, status model.AppointmentStatus) (bool, error)
	GetDoctorAppointments(ctx context.Context, doctorID string) ([]model.DoctorAppointment, error)
}

type Handler struct {
	service Service
	access  middleware.AccessChecker
}

func NewHandler(service Service, access middleware.AccessChecker) *Handler {
	return &Handler{service: service, access: access}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	queue := middleware.RequirePermission(h.access, model.PermViewQueue)

	r.PATCH("/appointments/:id/status", queue, h.UpdateStatus)
	r.GET("/doctors/:id/appointments", queue, h.ListDoctorAppointments)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	id := c.Param("id")
	updated, err := h.service.UpdateAppointmentStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if !updated {
		httputil.RespondWithError(c, errors.NewNotFound("appointment", nil))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"id": id, "status": req.Status})
}

func (h *Handler) ListDoctorAppointments(c *gin.Context) {
	appointments, err := h.service.GetDoctorAppointments(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}
