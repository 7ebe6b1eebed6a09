package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/pagepick/internal/config"
	"github.com/Lllllllleong/pagepick/internal/gcp"
	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/selector"
	"github.com/Lllllllleong/pagepick/internal/workspace"
)

// Response statuses returned to workflow callers.
const (
	ResponseCompleted = "COMPLETED"
	ResponseDuplicate = "DUPLICATE"
)

// Object metadata keys read next to the configured pages and mode keys.
const (
	startMetadataKey = "start"
	endMetadataKey   = "end"
)

type PageExtractorConfig struct {
	OutputBucket     string
	OutputPrefix     string
	TempDir          string
	PagesMetadataKey string
	ModeMetadataKey  string
}

type PageExtractorFunction struct {
	store     ObjectStore
	ledger    JobLedger
	workflow  WorkflowTrigger
	extractor *Extractor
	config    PageExtractorConfig
	now       func() time.Time
}

type GCSEvent struct {
	Bucket   string            `json:"bucket"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

// NewPageExtractor wires the function from its parts. workflow may be nil.
func NewPageExtractor(store ObjectStore, ledger JobLedger, workflow WorkflowTrigger, extractor *Extractor, cfg PageExtractorConfig) *PageExtractorFunction {
	return &PageExtractorFunction{
		store:     store,
		ledger:    ledger,
		workflow:  workflow,
		extractor: extractor,
		config:    cfg,
		now:       time.Now,
	}
}

// NewPageExtractorFromConfig creates the Cloud Storage, Firestore and, when a
// workflow id is configured, Workflows clients.
func NewPageExtractorFromConfig(ctx context.Context, cfg *config.Config) (*PageExtractorFunction, error) {
	if err := cfg.ValidateFunction(); err != nil {
		return nil, err
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.GCP.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}

	var workflow WorkflowTrigger
	if cfg.GCP.WorkflowID != "" {
		trigger, err := gcp.NewWorkflowTrigger(ctx, cfg.GCP.ProjectID, cfg.GCP.WorkflowLocation, cfg.GCP.WorkflowID)
		if err != nil {
			return nil, err
		}
		workflow = trigger
	}

	f := NewPageExtractor(
		storageClient,
		gcp.NewJobLedger(firestoreClient, cfg.GCP.CollectionName),
		workflow,
		NewExtractor(),
		PageExtractorConfig{
			OutputBucket:     cfg.GCP.OutputBucket,
			OutputPrefix:     cfg.GCP.OutputPrefix,
			TempDir:          cfg.Upload.TempDir,
			PagesMetadataKey: cfg.GCP.PagesMetadataKey,
			ModeMetadataKey:  cfg.GCP.ModeMetadataKey,
		},
	)
	slog.Info("Page extractor initialized.", "outputBucket", cfg.GCP.OutputBucket, "workflowId", cfg.GCP.WorkflowID)
	return f, nil
}

// Process handles an object finalized in the inbox bucket. Objects that are
// not PDFs or carry no selector metadata are ignored. Failures caused by the
// upload itself are recorded and swallowed so the event is not redelivered.
func (f *PageExtractorFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if !strings.EqualFold(path.Ext(e.Name), ".pdf") {
		logCtx.Info("Object is not a PDF. Skipping.")
		return nil
	}
	spec, err := f.specFromMetadata(e.Metadata)
	if errors.Is(err, models.ErrMissingSelector) {
		logCtx.Info("Object has no page selector metadata. Skipping.")
		return nil
	}
	if err != nil {
		logCtx.Warn("Object has an invalid page selector. Skipping.", "error", err)
		return nil
	}

	logCtx.Info("Processing new GCS object.", "selector", spec.String())
	resp, err := f.run(ctx, logCtx, e.Bucket, e.Name, spec, "")
	if err != nil {
		if IsPermanent(err) {
			logCtx.Warn("Extraction rejected.", "error", err)
			return nil
		}
		return err
	}
	logCtx.Info("Extraction finished.", "status", resp.Status, "outputGcsUri", resp.OutputGCSUri)
	return nil
}

// HandleRequest runs an extraction on behalf of a workflow step.
func (f *PageExtractorFunction) HandleRequest(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error) {
	bucket, object, err := gcp.ParseURI(req.SourceGCSUri)
	if err != nil {
		return nil, err
	}
	logCtx := slog.With("gcsBucket", bucket, "gcsObject", object, "executionId", req.ExecutionID)

	spec, err := selector.NewSpec(req.Mode, req.Pages, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	return f.run(ctx, logCtx, bucket, object, spec, req.ExecutionID)
}

// specFromMetadata reads the selector the uploader attached to the object.
func (f *PageExtractorFunction) specFromMetadata(md map[string]string) (selector.Spec, error) {
	var start, end int
	if v := md[startMetadataKey]; v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return selector.Spec{}, fmt.Errorf("%w: start %q", selector.ErrInvalidRange, v)
		}
		start = n
	}
	if v := md[endMetadataKey]; v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return selector.Spec{}, fmt.Errorf("%w: end %q", selector.ErrInvalidRange, v)
		}
		end = n
	}
	return selector.NewSpec(md[f.config.ModeMetadataKey], md[f.config.PagesMetadataKey], start, end)
}

// run downloads the source, skips work already done for the same file and
// page list, extracts, uploads the result and hands off to the workflow.
// When executionID is set the caller is itself a workflow and no new
// execution is started.
func (f *PageExtractorFunction) run(ctx context.Context, logCtx *slog.Logger, bucket, object string, spec selector.Spec, executionID string) (*models.ExtractResponse, error) {
	ws, err := workspace.New(f.config.TempDir, "page-extractor")
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	sourcePath := ws.Path("source.pdf")
	if err := f.store.Download(ctx, bucket, object, sourcePath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return nil, err
	}

	fileHash, err := calculateFileHash(sourcePath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return nil, fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	job := models.ExtractionJob{
		FileHash:         fileHash,
		OriginalFilename: object,
		Selector:         spec.String(),
		Status:           models.StatusExtracting,
	}

	src, err := f.extractor.Open(sourcePath)
	if err != nil {
		return nil, f.recordRejected(ctx, logCtx, job, "failed to read source PDF", err)
	}
	defer src.Close()
	total := src.PageCount()
	job.PageCount = total

	sel, err := spec.Resolve(total)
	if err != nil {
		return nil, f.recordRejected(ctx, logCtx, job, "failed to resolve selector", err)
	}
	if len(sel.Pages) == 0 {
		resp := &models.ExtractResponse{ExtractedPages: []int{}, TotalPages: total, Diagnostics: sel.Diagnostics}
		return resp, f.recordRejected(ctx, logCtx, job, "selector matched no pages", models.ErrNoPagesSelected)
	}
	job.PagesKey = PagesKey(sel.Pages)

	existing, err := f.ledger.FindCompleted(ctx, fileHash, job.PagesKey)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return nil, err
	}
	if existing != nil {
		logCtx.Info("Duplicate extraction detected. Skipping.", "existingJobId", existing.ID)
		return &models.ExtractResponse{
			Status:         ResponseDuplicate,
			OutputGCSUri:   existing.OutputURI,
			ExtractedPages: existing.ExtractedPages,
			TotalPages:     existing.PageCount,
			Diagnostics:    sel.Diagnostics,
		}, nil
	}

	jobID, err := f.ledger.Start(ctx, job)
	if err != nil {
		logCtx.Error("Failed to create job document", "error", err)
		return nil, err
	}
	logCtx = logCtx.With("jobId", jobID)
	logCtx.Info("Created job document in Firestore.")

	outputName := f.outputName(object)
	result, err := src.ExtractTo(ws.Path(outputName), sel.Pages)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, jobID, "failed to extract pages", err)
	}
	result.Diagnostics = append(sel.Diagnostics, result.Diagnostics...)

	// The job id keeps keys unique when names and timestamps coincide.
	outputKey := path.Join(f.config.OutputPrefix, jobID, outputName)
	outputURI, err := f.store.Upload(ctx, f.config.OutputBucket, outputKey, ws.Path(outputName), "application/pdf")
	if err != nil {
		return nil, f.handleError(ctx, logCtx, jobID, "failed to upload extracted PDF", err)
	}
	logCtx.Info("Extracted PDF uploaded.", "outputGcsUri", outputURI, "extracted", len(result.ExtractedPages))

	if executionID == "" && f.workflow != nil {
		executionID, err = f.workflow.Trigger(ctx, map[string]interface{}{
			"jobId":          jobID,
			"outputGcsUri":   outputURI,
			"extractedPages": result.ExtractedPages,
			"totalPages":     result.TotalPages,
		})
		if err != nil {
			return nil, f.handleError(ctx, logCtx, jobID, "failed to trigger workflow execution", err)
		}
		logCtx.Info("Hand-off to workflow complete.", "executionId", executionID)
	}

	if err := f.ledger.Complete(ctx, jobID, result, outputURI, executionID); err != nil {
		logCtx.Error("Failed to mark job as completed", "error", err)
		return nil, err
	}

	return &models.ExtractResponse{
		Status:         ResponseCompleted,
		OutputGCSUri:   outputURI,
		ExtractedPages: result.ExtractedPages,
		TotalPages:     result.TotalPages,
		Diagnostics:    result.Diagnostics,
	}, nil
}

// outputName turns "inbox/report.pdf" into "report_20240102_150405.pdf".
func (f *PageExtractorFunction) outputName(object string) string {
	base := path.Base(object)
	base = strings.TrimSuffix(base, path.Ext(base))
	return workspace.TimestampedName(workspace.SanitizeFilename(base), ".pdf", f.now().UTC())
}

// recordRejected stores a failed job for input that could not be processed.
func (f *PageExtractorFunction) recordRejected(ctx context.Context, logCtx *slog.Logger, job models.ExtractionJob, message string, originalErr error) error {
	logCtx.Warn(message, "error", originalErr)
	job.Status = models.StatusFailed
	job.ErrorDetails = fmt.Sprintf("%s: %v", message, originalErr)
	if _, err := f.ledger.Start(ctx, job); err != nil {
		logCtx.Error("Failed to record rejected job.", "error", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func (f *PageExtractorFunction) handleError(ctx context.Context, logCtx *slog.Logger, jobID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := f.ledger.Fail(ctx, jobID, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

// PagesKey is the canonical form of a page list used for duplicate detection.
func PagesKey(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
