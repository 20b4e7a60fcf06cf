package analysis

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/llm"
	"github.com/suiscode/ai-resume/internal/resumes"
	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
	"github.com/suiscode/ai-resume/internal/shared/validate"
)

// Messages for POST /api/analyze failures.
var Messages = llm.Messages{
	RateLimited: "AI service rate limit reached. Please retry shortly.",
	Rejected:    "AI service rejected the request payload.",
	Provider:    "Failed to analyze resume at this time.",
	Empty:       "AI service returned an empty analysis.",
	Malformed:   "AI service returned malformed analysis.",
	Timeout:     "AI analysis timed out. Please try again.",
	Internal:    "Unexpected server error during analysis.",
}

// ResumeSaver persists analyzed resumes for signed-in callers.
type ResumeSaver interface {
	Save(ctx context.Context, in resumes.NewResume) (resumes.Resume, error)
}

// Handler wires POST /api/analyze to the service.
type Handler struct {
	Svc     *Service
	Resumes ResumeSaver
}

// NewHandler constructs a Handler. saver may be nil.
func NewHandler(svc *Service, saver ResumeSaver) *Handler {
	return &Handler{Svc: svc, Resumes: saver}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
}

type analyzeRequest struct {
	NormalizedResumeText string `json:"normalizedResumeText" validate:"min=200,max=20000"`
	JobTarget            string `json:"jobTarget" validate:"omitempty,min=2,max=500"`
	Title                string `json:"title" validate:"omitempty,max=200"`
	Source               string `json:"source" validate:"omitempty,oneof=pdf text"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	req.NormalizedResumeText = strings.TrimSpace(req.NormalizedResumeText)
	req.JobTarget = strings.TrimSpace(req.JobTarget)
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(req); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "Invalid request payload.", respond.ValidationDetails(err))
		return
	}

	requestID := c.GetString("requestId")
	out, err := h.Svc.Analyze(c.Request.Context(), Input{
		ResumeText: req.NormalizedResumeText,
		JobTarget:  req.JobTarget,
		RequestID:  requestID,
	})
	if err != nil {
		f := llm.Translate(err, Messages)
		_ = c.Error(err)
		respond.Error(c, f.Status, f.Code, f.Message, f.Details)
		return
	}

	resp := gin.H{
		"overallScore": out.Result.OverallScore,
		"strengths":    out.Result.Strengths,
		"weaknesses":   out.Result.Weaknesses,
		"suggestions":  out.Result.Suggestions,
		"keywordGaps":  out.Result.KeywordGaps,
	}
	if id := h.save(c, req, out, requestID); id != "" {
		resp["resumeId"] = id
	}
	respond.OK(c, resp)
}

// save stores the analysis for signed-in callers that named it. Failures are logged only.
func (h *Handler) save(c *gin.Context, req analyzeRequest, out Outcome, requestID string) string {
	userID := middleware.UserIDFromContext(c)
	if h.Resumes == nil || userID == "" || req.Title == "" || req.Source == "" {
		return ""
	}
	saved, err := h.Resumes.Save(c.Request.Context(), resumes.NewResume{
		UserID:    userID,
		Title:     req.Title,
		Source:    resumes.Source(req.Source),
		Score:     out.Result.OverallScore,
		Analysis:  out.Raw,
		RawText:   req.NormalizedResumeText,
		JobTarget: req.JobTarget,
		RequestID: requestID,
	})
	if err != nil {
		telemetry.Error("analysis.save_failed", map[string]any{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		})
		return ""
	}
	c.Set("resumeId", saved.ID)
	return saved.ID
}
