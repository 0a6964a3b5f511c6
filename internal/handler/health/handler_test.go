package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/healthtown-api/pkg/metrics"
)

func setup(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	w := get(setup(NewHandler(prometheus.NewRegistry())), "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	h := NewHandler(prometheus.NewRegistry())
	h.SetStateReporter(func() map[string]string { return map[string]string{"ai_breaker": "closed"} })
	h.AddCheck("database", func(ctx context.Context) error { return nil })
	r := setup(h)

	w := get(r, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP","ai_breaker":"closed"}`, w.Body.String())

	h.AddCheck("redis", func(ctx context.Context) error { return errors.New("connection refused") })
	w = get(r, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis: connection refused")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("healthtown", reg)
	m.ObserveRun("success")

	w := get(setup(NewHandler(reg)), "/api/v1/health/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `healthtown_consultation_runs_total{outcome="success"} 1`)
}
