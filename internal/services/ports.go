package services

import (
	"context"

	"github.com/Lllllllleong/pagepick/internal/models"
)

// ObjectStore moves files between local disk and a bucket-based object store.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key, destPath string) error
	// Upload stores srcPath under key and returns a location callers can use to fetch it.
	Upload(ctx context.Context, bucket, key, srcPath, contentType string) (string, error)
}

// JobLedger records extraction jobs.
type JobLedger interface {
	// FindCompleted returns a completed job for the same file and page list, or nil.
	FindCompleted(ctx context.Context, fileHash, pagesKey string) (*models.ExtractionJob, error)
	Start(ctx context.Context, job models.ExtractionJob) (string, error)
	Complete(ctx context.Context, jobID string, result *models.ExtractionResult, outputURI, executionID string) error
	Fail(ctx context.Context, jobID, details string) error
}

// WorkflowTrigger hands a finished extraction to a downstream workflow.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, payload map[string]interface{}) (string, error)
}
