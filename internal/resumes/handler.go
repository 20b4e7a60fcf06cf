package resumes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the resumes service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume history routes. Callers must require a user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes", h.listResumes)
	rg.GET("/resumes/:id", h.getResume)
}

func (h *Handler) listResumes(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := DefaultListLimit
	offset := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "Invalid query parameters.", []respond.FieldIssue{{Field: "limit", Issue: "must be a positive integer"}})
			return
		}
		limit = parsed
	}
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "Invalid query parameters.", []respond.FieldIssue{{Field: "offset", Issue: "must be a non-negative integer"}})
			return
		}
		offset = parsed
	}

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Internal(c, "Failed to load resumes.", err)
		return
	}

	respond.OK(c, gin.H{
		"items":  items,
		"limit":  ClampLimit(limit),
		"offset": offset,
	})
}

func (h *Handler) getResume(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	res, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Resume not found.", nil)
			return
		}
		respond.Internal(c, "Failed to load resume.", err)
		return
	}
	c.Set("resumeId", res.ID)

	respond.OK(c, gin.H{
		"id":        res.ID,
		"title":     res.Title,
		"source":    res.Source,
		"score":     res.Score,
		"scoreBand": ScoreBand(res.Score),
		"analysis":  res.Analysis,
		"rawText":   res.RawText,
		"jobTarget": res.JobTarget,
		"createdAt": res.CreatedAt,
	})
}
