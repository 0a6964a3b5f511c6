package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/pkg/httputil"
	"github.com/jwalitptl/healthtown-api/pkg/logger"
)

// ErrorHandler logs errors attached to the context with c.Error. If the
// handler wrote nothing, a generic 500 is sent.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error(e.Err, "Request error",
				"request_id", c.GetString(ContextRequestID),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"client_ip", c.ClientIP(),
			)
		}

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, httputil.NewErrorResponse("internal server error"))
		}
	}
}
