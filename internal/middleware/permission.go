package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

// Identity headers set by the portal UI after login.
const (
	HeaderUserRole = "X-User-Role"
	HeaderUserID   = "X-User-ID"

	ContextUserRole = "user_role"
	ContextUserID   = "user_id"
)

// AccessChecker decides whether a role holds any of the given permissions.
type AccessChecker interface {
	Allowed(role string, perms ...model.Permission) bool
}

// Identity copies the caller's asserted id and role into the context.
// The role defaults to PATIENT.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := strings.ToUpper(strings.TrimSpace(c.GetHeader(HeaderUserRole)))
		if role == "" {
			role = string(model.RolePatient)
		}
		c.Set(ContextUserRole, role)
		c.Set(ContextUserID, strings.TrimSpace(c.GetHeader(HeaderUserID)))
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the caller's role holds at least
// one of perms.
func RequirePermission(access AccessChecker, perms ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if role == "" {
			role = c.GetHeader(HeaderUserRole)
		}
		if !access.Allowed(role, perms...) {
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.NewErrorResponse("permission denied"))
			return
		}
		c.Next()
	}
}

// UserID returns the caller id placed by Identity.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
