package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type Handler struct {
	checks   map[string]Check
	gatherer prometheus.Gatherer
	// state reports extra fields for readiness, such as the AI breaker state.
	state func() map[string]string
}

func NewHandler(gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		checks:   make(map[string]Check),
		gatherer: gatherer,
	}
}

// AddCheck registers a readiness probe under name.
func (h *Handler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

func (h *Handler) SetStateReporter(fn func() map[string]string) {
	h.state = fn
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
		health.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	body := gin.H{"status": "UP"}
	if h.state != nil {
		for k, v := range h.state() {
			body[k] = v
		}
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			body["status"] = "DOWN"
			body["reason"] = name + ": " + err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
