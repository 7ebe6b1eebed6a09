package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Lllllllleong/pagepick/internal/middleware"
	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/selector"
	"github.com/Lllllllleong/pagepick/internal/services"
	"github.com/Lllllllleong/pagepick/internal/workspace"
)

// Batch handles POST /api/v1/batch
// Each "pdf" part is paired with the "pages" value at the same position. A
// single "pages" value applies to every file. The response is a zip archive
// with the extracted documents and a manifest.
func (h *ExtractHandler) Batch(c *gin.Context) {
	logCtx := slog.With("requestId", middleware.GetRequestID(c))

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart form is required")
		return
	}
	files := form.File["pdf"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "at least one pdf field is required")
		return
	}
	if h.upload.MaxBatchFiles > 0 && len(files) > h.upload.MaxBatchFiles {
		HandleError(c, fmt.Errorf("%d files: %w", len(files), models.ErrTooManyFiles))
		return
	}

	mode, err := selector.ParseMode(c.PostForm("mode"))
	if err != nil {
		HandleError(c, err)
		return
	}
	start, err := formInt("start", c.PostForm("start"))
	if err != nil {
		HandleError(c, err)
		return
	}
	end, err := formInt("end", c.PostForm("end"))
	if err != nil {
		HandleError(c, err)
		return
	}
	pages := form.Value["pages"]

	ws, err := workspace.New(h.upload.TempDir, "batch")
	if err != nil {
		HandleError(c, err)
		return
	}
	defer ws.Close()

	items := make([]services.BatchItem, 0, len(files))
	for i, fh := range files {
		src, err := saveUpload(ws, fh, fmt.Sprintf("in_%03d.pdf", i), h.upload.MaxFileSize())
		if err != nil {
			HandleError(c, err)
			return
		}
		items = append(items, services.BatchItem{
			Name:       workspace.SanitizeFilename(fh.Filename),
			SourcePath: src,
			Spec:       selector.Spec{Mode: mode, Text: alignedSelector(pages, i), Start: start, End: end},
		})
	}

	outDir := filepath.Join(ws.Dir(), "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		HandleError(c, fmt.Errorf("failed to create output directory: %w", err))
		return
	}

	outcomes := h.svc.ProcessBatch(c.Request.Context(), items, outDir)
	manifest := services.Manifest(outcomes)
	logCtx.Info("Batch processed.", "files", len(items), "succeeded", manifest.Succeeded, "failed", manifest.Failed, "skipped", manifest.Skipped)

	archiveName := workspace.TimestampedName("extracted", ".zip", h.now())
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archiveName))
	c.Header("X-Batch-Succeeded", strconv.Itoa(manifest.Succeeded))
	c.Header("X-Batch-Failed", strconv.Itoa(manifest.Failed))
	c.Header("X-Batch-Skipped", strconv.Itoa(manifest.Skipped))
	c.Status(http.StatusOK)

	if err := services.WriteArchive(c.Writer, outcomes); err != nil {
		// Headers are already sent; the client sees a truncated archive.
		logCtx.Error("Failed to write batch archive.", "error", err)
		_ = c.Error(err)
	}
}

func alignedSelector(pages []string, i int) string {
	switch {
	case len(pages) == 1:
		return strings.TrimSpace(pages[0])
	case i < len(pages):
		return strings.TrimSpace(pages[i])
	default:
		return ""
	}
}
