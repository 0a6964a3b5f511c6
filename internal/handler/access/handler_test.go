package access

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/internal/service/rbac"
)

func TestGetAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(rbac.NewService()).RegisterRoutes(r.Group("/api/v1"))

	tests := []struct {
		role     string
		wantRole model.UserRole
		wantPerm model.Permission
	}{
		{role: "admin", wantRole: model.RoleAdmin, wantPerm: model.PermManageUsers},
		{role: "DOCTOR", wantRole: model.RoleDoctor, wantPerm: model.PermWritePrescription},
		{role: "guest", wantRole: model.RolePatient, wantPerm: model.PermRunConsultation},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/access/"+tt.role, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Data model.AccessProfile `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantRole, body.Data.Role)
			assert.True(t, body.Data.Has(tt.wantPerm))
		})
	}
}
