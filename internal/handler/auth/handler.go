package auth

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/healthtown-api/internal/model"
	"github.com/jwalitptl/healthtown-api/pkg/httputil"
)

type Directory interface {
	RegisterPatient(ctx context.Context, req model.RegisterPatientRequest) (*model.User, error)
	Login(ctx context.Context, email, password string, role model.UserRole) (*model.User, error)
}

type AccessProfiler interface {
	DetermineAccess(role string) model.AccessProfile
}

// LoginResponse carries the signed-in user and what the UI may show them.
// No token is issued; the UI asserts identity on later calls.
type LoginResponse struct {
	User   *model.User         `json:"user"`
	Access model.AccessProfile `json:"access"`
}

type Handler struct {
	users  Directory
	access AccessProfiler
}

func NewHandler(users Directory, access AccessProfiler) *Handler {
	return &Handler{users: users, access: access}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	user, err := h.users.RegisterPatient(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, LoginResponse{
		User:   user,
		Access: h.access.DetermineAccess(string(user.Role)),
	})
}
