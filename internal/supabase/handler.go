package supabase

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/server/respond"
	"github.com/suiscode/ai-resume/internal/shared/validate"
)

const notConfiguredMessage = "Supabase auth is not configured. Set NEXT_PUBLIC_SUPABASE_URL and NEXT_PUBLIC_SUPABASE_ANON_KEY."

// Handler proxies email/password auth to Supabase.
type Handler struct {
	Client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{Client: client}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.signUp)
	rg.POST("/auth/signin", h.signIn)
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"fullName" validate:"max=120"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if !bind(c, &req, func() {
		req.Email = strings.TrimSpace(req.Email)
		req.FullName = strings.TrimSpace(req.FullName)
	}) {
		return
	}
	session, err := h.Client.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, session)
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if !bind(c, &req, func() { req.Email = strings.TrimSpace(req.Email) }) {
		return
	}
	session, err := h.Client.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, session)
}

func bind(c *gin.Context, req any, normalize func()) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respond.BindError(c, err)
		return false
	}
	normalize()
	if err := validate.Struct(req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "Invalid request payload.", respond.ValidationDetails(err))
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotConfigured) {
		respond.Error(c, http.StatusInternalServerError, "config_error", notConfiguredMessage, nil)
		return
	}
	var serr *Error
	if errors.As(err, &serr) {
		status := serr.Status
		if status >= 500 {
			status = http.StatusBadGateway
		}
		respond.Error(c, status, "auth_error", serr.Message, nil)
		return
	}
	_ = c.Error(err)
	respond.Error(c, http.StatusBadGateway, "auth_error", "Authentication service unavailable.", nil)
}
