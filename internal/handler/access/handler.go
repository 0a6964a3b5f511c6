package access

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type Profiler interface {
	DetermineAccess(role string) model.AccessProfile
}

type Handler struct {
	profiler Profiler
}

func NewHandler(profiler Profiler) *Handler {
	return &Handler{profiler: profiler}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/access/:role", h.GetAccess)
}

func (h *Handler) GetAccess(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.profiler.DetermineAccess(c.Param("role")))
}
