package settings

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/middleware"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type Service interface {
	GetSettings(ctx context.Context) (model.SystemSettings, error)
	UpdateSettings(ctx context.Context, req model.UpdateSettingsRequest) (model.SystemSettings, error)
}

type Handler struct {
	service Service
	access  middleware.AccessChecker
}

func NewHandler(service Service, access middleware.AccessChecker) *Handler {
	return &Handler{service: service, access: access}
}

// RegisterRoutes exposes settings for reading to everyone; the portal
// shows the announcement and clinic name before login.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.GetSettings)
	r.PATCH("/settings", middleware.RequirePermission(h.access, model.PermEditSettings), h.UpdateSettings)
}

func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, s)
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	s, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, s)
}
