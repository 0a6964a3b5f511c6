package doctor

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type Finder interface {
	FindMatchingDoctors(ctx context.Context, specialist string) (*model.DoctorSearchOutput, error)
}

type Directory interface {
	ListDoctors(ctx context.Context) ([]*model.User, error)
}

type Handler struct {
	finder    Finder
	directory Directory
}

func NewHandler(finder Finder, directory Directory) *Handler {
	return &Handler{finder: finder, directory: directory}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/search", h.Search)
	}
}

// Search matches ?specialist= against the active doctor directory.
func (h *Handler) Search(c *gin.Context) {
	out, err := h.finder.FindMatchingDoctors(c.Request.Context(), c.Query("specialist"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, out)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.directory.ListDoctors(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, doctors)
}
