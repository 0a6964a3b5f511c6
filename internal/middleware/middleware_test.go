package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/service/rbac"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.Use(Identity())
	r.GET("/admin", RequirePermission(rbac.NewService(), model.PermEditSettings), ok)
	r.GET("/doctor", RequirePermission(rbac.NewService(), model.PermRunConsultation, model.PermCreateRecord), ok)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/admin", map[string]string{HeaderUserRole: "admin"}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/admin", map[string]string{HeaderUserRole: "DOCTOR"}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/admin", nil).Code)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/doctor", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/doctor", map[string]string{HeaderUserRole: "DOCTOR"}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/doctor", map[string]string{HeaderUserRole: "ADMIN"}).Code)
}

func TestIdentity_UserID(t *testing.T) {
	r := gin.New()
	r.Use(Identity())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c)+"|"+c.GetString(ContextUserRole))
	})

	w := perform(r, http.MethodGet, "/", map[string]string{HeaderUserID: " P-1 ", HeaderUserRole: "doctor"})
	assert.Equal(t, "P-1|DOCTOR", w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", ok)

	w := perform(r, http.MethodGet, "/", map[string]string{HeaderXRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(HeaderXRequestID))

	w = perform(r, http.MethodGet, "/", nil)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 1, Burst: 2})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(2 * time.Minute)
	rl.Allow("b")

	assert.Len(t, rl.clients, 1)
}

func TestRateLimit_Middleware(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 1}).RateLimit())
	r.GET("/", ok)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodGet, "/", nil).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(logger.Nop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}

func TestTimeout_WritesGatewayTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(TimeoutConfig{Duration: 10 * time.Millisecond}))
	r.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	assert.Equal(t, http.StatusGatewayTimeout, perform(r, http.MethodGet, "/", nil).Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://portal.healthtown.com"}
	r.Use(CORS(cfg))
	r.GET("/", ok)

	w := perform(r, http.MethodOptions, "/", map[string]string{"Origin": "https://portal.healthtown.com"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.healthtown.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	w = perform(r, http.MethodGet, "/", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorHandler_WritesWhenHandlerDidNot(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logger.Nop()))
	r.GET("/", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	w := perform(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
