package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
)

// identity is the token's view of the caller; profile data lives under /profile.
type identity struct {
	UserID  string `json:"userId"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", middleware.RequireUser(), func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, identity{
			UserID:  middleware.UserIDFromContext(c),
			Email:   middleware.UserEmailFromContext(c),
			Name:    middleware.UserNameFromContext(c),
			Picture: middleware.UserPictureFromContext(c),
		})
	})
}
