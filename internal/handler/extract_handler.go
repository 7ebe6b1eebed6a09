package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Lllllllleong/pagepick/internal/config"
	"github.com/Lllllllleong/pagepick/internal/middleware"
	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/selector"
	"github.com/Lllllllleong/pagepick/internal/services"
	"github.com/Lllllllleong/pagepick/internal/workspace"
)

// Response headers set on extracted documents.
const (
	HeaderTotalPages      = "X-Total-Pages"
	HeaderExtractedPages  = "X-Extracted-Pages"
	HeaderDiagnostic      = "X-Diagnostic"
	HeaderArchiveLocation = "X-Archive-Location"
)

// ExtractHandler handles selection, inspection and extraction endpoints.
type ExtractHandler struct {
	svc     services.ExtractionService
	upload  config.UploadConfig
	preview config.PreviewConfig
	archive services.ObjectStore
	bucket  string
	prefix  string
	now     func() time.Time
}

// NewExtractHandler creates a new ExtractHandler. archive may be nil, in
// which case extracted documents are not kept after the response.
func NewExtractHandler(svc services.ExtractionService, cfg *config.Config, archive services.ObjectStore) *ExtractHandler {
	return &ExtractHandler{
		svc:     svc,
		upload:  cfg.Upload,
		preview: cfg.Preview,
		archive: archive,
		bucket:  cfg.Archive.Bucket,
		prefix:  cfg.Archive.Prefix,
		now:     time.Now,
	}
}

// Selection handles POST /api/v1/selection
func (h *ExtractHandler) Selection(c *gin.Context) {
	var req models.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}
	if req.TotalPages < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "totalPages must not be negative")
		return
	}
	if h.upload.MaxPages > 0 && req.TotalPages > h.upload.MaxPages {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("totalPages must not exceed %d", h.upload.MaxPages))
		return
	}

	mode, err := selector.ParseMode(req.Mode)
	if err != nil {
		HandleError(c, err)
		return
	}
	spec := selector.Spec{Mode: mode, Text: req.Pages, Start: req.Start, End: req.End}
	sel, err := spec.Resolve(req.TotalPages)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, models.SelectionResponse{Pages: sel.Pages, Diagnostics: sel.Diagnostics})
}

// Inspect handles POST /api/v1/inspect
func (h *ExtractHandler) Inspect(c *gin.Context) {
	fh, err := c.FormFile("pdf")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "pdf field is required")
		return
	}

	ws, err := workspace.New(h.upload.TempDir, "inspect")
	if err != nil {
		HandleError(c, err)
		return
	}
	defer ws.Close()

	src, err := saveUpload(ws, fh, "source.pdf", h.upload.MaxFileSize())
	if err != nil {
		HandleError(c, err)
		return
	}

	preview, err := h.svc.Preview(c.Request.Context(), src, h.preview.MaxPages, h.preview.MaxChars)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, preview)
}

// Extract handles POST /api/v1/extract
// The response body is the extracted PDF.
func (h *ExtractHandler) Extract(c *gin.Context) {
	logCtx := slog.With("requestId", middleware.GetRequestID(c))

	fh, err := c.FormFile("pdf")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "pdf field is required")
		return
	}
	spec, err := specFromForm(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	ws, err := workspace.New(h.upload.TempDir, "extract")
	if err != nil {
		HandleError(c, err)
		return
	}
	defer ws.Close()

	src, err := saveUpload(ws, fh, "source.pdf", h.upload.MaxFileSize())
	if err != nil {
		HandleError(c, err)
		return
	}

	outputName := workspace.TimestampedName("extracted", ".pdf", h.now())
	outPath := ws.Path(outputName)
	result, err := h.svc.Process(c.Request.Context(), services.Request{
		SourcePath: src,
		OutputPath: outPath,
		Spec:       spec,
	})
	if err != nil {
		status, code, msg := MapError(err)
		if status == http.StatusInternalServerError {
			logCtx.Error("Extraction failed.", "error", err)
		}
		resp := APIResponse{Success: false, Error: &APIError{Code: code, Message: msg}}
		if result != nil {
			resp.Data = result
		}
		c.JSON(status, resp)
		return
	}
	logCtx.Info("Extraction complete.", "file", fh.Filename, "totalPages", result.TotalPages, "extracted", len(result.ExtractedPages))

	if h.archive != nil {
		// Each archived copy gets its own directory so concurrent requests never share a key.
		key := path.Join(h.prefix, uuid.NewString(), outputName)
		location, err := h.archive.Upload(c.Request.Context(), h.bucket, key, outPath, "application/pdf")
		if err != nil {
			logCtx.Warn("Failed to archive extracted document.", "error", err)
		} else {
			c.Header(HeaderArchiveLocation, location)
		}
	}

	c.Header(HeaderTotalPages, strconv.Itoa(result.TotalPages))
	c.Header(HeaderExtractedPages, services.PagesKey(result.ExtractedPages))
	for _, d := range result.Diagnostics {
		c.Writer.Header().Add(HeaderDiagnostic, d.Message)
	}
	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(outPath, outputName)
}

// specFromForm reads mode, pages, start and end form fields.
func specFromForm(c *gin.Context) (selector.Spec, error) {
	start, err := formInt("start", c.PostForm("start"))
	if err != nil {
		return selector.Spec{}, err
	}
	end, err := formInt("end", c.PostForm("end"))
	if err != nil {
		return selector.Spec{}, err
	}
	spec, err := selector.NewSpec(c.PostForm("mode"), c.PostForm("pages"), start, end)
	if err != nil {
		return selector.Spec{}, fmt.Errorf("invalid selector: %w", err)
	}
	return spec, nil
}
