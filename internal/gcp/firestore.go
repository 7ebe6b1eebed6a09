package gcp

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/pagepick/internal/models"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// JobLedger implements services.JobLedger on a Firestore collection.
type JobLedger struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewJobLedger returns a ledger writing to collection.
func NewJobLedger(client *firestore.Client, collection string) *JobLedger {
	return &JobLedger{client: client, collection: collection, now: time.Now}
}

// FindCompleted looks up a completed job for the same file hash and page list.
func (l *JobLedger) FindCompleted(ctx context.Context, fileHash, pagesKey string) (*models.ExtractionJob, error) {
	docs, err := l.client.Collection(l.collection).
		Where("fileHash", "==", fileHash).
		Where("pagesKey", "==", pagesKey).
		Where("status", "==", models.StatusCompleted).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	var job models.ExtractionJob
	if err := docs[0].DataTo(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", docs[0].Ref.ID, err)
	}
	job.ID = docs[0].Ref.ID
	return &job, nil
}

// Start adds a new job document and returns its ID.
func (l *JobLedger) Start(ctx context.Context, job models.ExtractionJob) (string, error) {
	now := l.now()
	job.CreatedAt = now
	job.UpdatedAt = now
	docRef, _, err := l.client.Collection(l.collection).Add(ctx, job)
	if err != nil {
		return "", fmt.Errorf("failed to create job document: %w", err)
	}
	return docRef.ID, nil
}

// Complete marks the job as completed and records where the output went.
func (l *JobLedger) Complete(ctx context.Context, jobID string, result *models.ExtractionResult, outputURI, executionID string) error {
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusCompleted},
		{Path: "pageCount", Value: result.TotalPages},
		{Path: "extractedPages", Value: result.ExtractedPages},
		{Path: "outputUri", Value: outputURI},
		{Path: "updatedAt", Value: l.now()},
	}
	if executionID != "" {
		updates = append(updates, firestore.Update{Path: "workflowExecutionId", Value: executionID})
	}
	if _, err := l.client.Collection(l.collection).Doc(jobID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	return nil
}

// Fail marks the job as failed.
func (l *JobLedger) Fail(ctx context.Context, jobID, details string) error {
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusFailed},
		{Path: "errorDetails", Value: details},
		{Path: "updatedAt", Value: l.now()},
	}
	if _, err := l.client.Collection(l.collection).Doc(jobID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to mark job %s as failed: %w", jobID, err)
	}
	return nil
}
