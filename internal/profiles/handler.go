package profiles

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
	"github.com/suiscode/ai-resume/internal/shared/validate"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches profile routes. Callers must require a user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.getProfile)
	rg.PUT("/profile", h.updateProfile)
}

type updateRequest struct {
	FullName      string               `json:"fullName" validate:"max=120"`
	JobTitle      string               `json:"jobTitle" validate:"max=120"`
	Notifications *notificationsRequest `json:"notifications" validate:"required"`
}

type notificationsRequest struct {
	EmailNotifications *bool `json:"emailNotifications" validate:"required"`
	WeeklyReports      *bool `json:"weeklyReports" validate:"required"`
	AITips             *bool `json:"aiTips" validate:"required"`
}

func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), middleware.UserEmailFromContext(c))
	if err != nil {
		respond.Internal(c, "Failed to load profile.", err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	if err := validate.Struct(req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "Invalid request payload.", respond.ValidationDetails(err))
		return
	}

	p, err := h.Svc.Update(c.Request.Context(), Profile{
		UserID:   middleware.UserIDFromContext(c),
		Email:    middleware.UserEmailFromContext(c),
		FullName: req.FullName,
		JobTitle: req.JobTitle,
		Notifications: Notifications{
			EmailNotifications: *req.Notifications.EmailNotifications,
			WeeklyReports:      *req.Notifications.WeeklyReports,
			AITips:             *req.Notifications.AITips,
		},
	})
	if err != nil {
		respond.Internal(c, "Failed to save profile.", err)
		return
	}
	respond.OK(c, p)
}
