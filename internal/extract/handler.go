package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/metrics"
	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
	"github.com/suiscode/ai-resume/internal/shared/storage/object"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

const (
	msgInvalidForm  = "Invalid multipart form data."
	msgNoFile       = "A PDF file is required."
	msgNotPDF       = "Only PDF files are supported."
	msgTooLarge     = "PDF must be 10MB or smaller."
	msgUnreadable   = "Unable to read text from this PDF."
	msgTooLittle    = "Could not extract enough text from the PDF. Try copying and pasting the resume text instead."
	archiveTimeout  = 10 * time.Second
	multipartMemory = 1 << 20
	// Form overhead allowed on top of the file itself.
	bodySlack = 1 << 20
)

// Handler serves POST /api/extract.
type Handler struct {
	Extractor *Extractor
	// Archive, when set, receives a copy of every accepted upload.
	Archive object.ObjectStore
}

func NewHandler(extractor *Extractor, archive object.ObjectStore) *Handler {
	return &Handler{Extractor: extractor, Archive: archive}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extract", h.extract)
}

func (h *Handler) extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxFileBytes+bodySlack)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			h.reject(c, http.StatusBadRequest, "file_too_large", msgTooLarge)
			return
		}
		h.reject(c, http.StatusBadRequest, "invalid_multipart", msgInvalidForm)
		return
	}
	// Parts over multipartMemory spill to disk. The Lambda adapter calls the
	// engine directly, so net/http never cleans them up for us.
	defer func() { _ = c.Request.MultipartForm.RemoveAll() }()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.reject(c, http.StatusBadRequest, "file_required", msgNoFile)
		return
	}
	defer file.Close()

	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if !strings.EqualFold(mediaType, MimePDF) {
		h.reject(c, http.StatusBadRequest, "unsupported_file_type", msgNotPDF)
		return
	}
	if header.Size > MaxFileBytes {
		h.reject(c, http.StatusBadRequest, "file_too_large", msgTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxFileBytes+1))
	if err != nil {
		h.reject(c, http.StatusBadRequest, "invalid_multipart", msgInvalidForm)
		return
	}
	if len(data) > MaxFileBytes {
		h.reject(c, http.StatusBadRequest, "file_too_large", msgTooLarge)
		return
	}

	doc, err := h.Extractor.Extract(c.Request.Context(), data)
	switch {
	case errors.Is(err, ErrTooLittleText):
		h.reject(c, http.StatusUnprocessableEntity, "insufficient_text", msgTooLittle)
		return
	case err != nil:
		_ = c.Error(err)
		h.reject(c, http.StatusUnprocessableEntity, "unreadable_pdf", msgUnreadable)
		return
	}

	metrics.IncExtraction("ok")
	telemetry.Info("extract.complete", map[string]any{
		"request_id": c.GetString("requestId"),
		"pages":      doc.Pages,
		"chars":      len(doc.Text),
		"size_bytes": len(data),
	})
	h.archive(c, header.Filename, data)

	respond.OK(c, gin.H{"normalizedResumeText": doc.Text})
}

func (h *Handler) reject(c *gin.Context, status int, code, message string) {
	metrics.IncExtraction(code)
	respond.Error(c, status, code, message, nil)
}

// archive stores the upload; failures are logged and never surface to the caller.
func (h *Handler) archive(c *gin.Context, fileName string, data []byte) {
	if h.Archive == nil {
		return
	}
	owner := middleware.UserIDFromContext(c)
	if owner == "" {
		owner = "anonymous"
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), archiveTimeout)
	defer cancel()

	stored, err := h.Archive.Put(ctx, object.Object{
		Owner:       owner,
		FileName:    fileName,
		ContentType: MimePDF,
		Body:        bytes.NewReader(data),
	})
	fields := map[string]any{"request_id": c.GetString("requestId")}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("extract.archive_failed", fields)
		return
	}
	fields["key"] = stored.Key
	fields["size_bytes"] = stored.SizeBytes
	telemetry.Info("extract.archived", fields)
}
