package audit

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/middleware"
	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type LogReader interface {
	GetLogs(ctx context.Context) ([]model.LogEntry, error)
}

type Handler struct {
	service LogReader
	access  middleware.AccessChecker
}

func NewHandler(service LogReader, access middleware.AccessChecker) *Handler {
	return &Handler{service: service, access: access}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit", middleware.RequirePermission(h.access, model.PermViewAuditLogs))
	{
		audit.GET("/logs", h.ListLogs)
	}
}

// ListLogs returns agent interactions oldest first. ?agent= narrows the
// list to one agent.
func (h *Handler) ListLogs(c *gin.Context) {
	logs, err := h.service.GetLogs(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if agent := c.Query("agent"); agent != "" {
		filtered := make([]model.LogEntry, 0, len(logs))
		for _, entry := range logs {
			if entry.AgentName == agent {
				filtered = append(filtered, entry)
			}
		}
		logs = filtered
	}

	httputil.RespondWithSuccess(c, logs)
}
