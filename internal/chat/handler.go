package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/llm"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
	"github.com/suiscode/ai-resume/internal/shared/validate"
)

// Messages for POST /api/chat failures.
var Messages = llm.Messages{
	RateLimited: "AI service rate limit reached. Please retry shortly.",
	Rejected:    "AI service rejected the request payload.",
	Provider:    "Unable to generate chat response right now.",
	Empty:       "AI service returned an empty response.",
	Malformed:   "AI service returned malformed chat output.",
	Timeout:     "AI chat timed out. Please try again.",
	Internal:    "Unexpected server error during chat.",
}

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
}

type chatRequest struct {
	Messages      []Message      `json:"messages" validate:"min=1,max=20,dive"`
	ResumeContext *ResumeContext `json:"resumeContext"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "Invalid request payload.", respond.ValidationDetails(err))
		return
	}

	reply, err := h.Svc.Reply(c.Request.Context(), req.Messages, req.ResumeContext)
	if err != nil {
		f := llm.Translate(err, Messages)
		_ = c.Error(err)
		respond.Error(c, f.Status, f.Code, f.Message, f.Details)
		return
	}
	respond.OK(c, reply)
}
