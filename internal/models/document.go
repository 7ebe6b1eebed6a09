package models

import "time"

// Job statuses recorded in the ledger.
const (
	StatusExtracting = "EXTRACTING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// ExtractionJob is the ledger record for one extraction run in Firestore.
// It tracks the source file, the requested selection and where the output went.
type ExtractionJob struct {
	ID                  string    `firestore:"-"`
	FileHash            string    `firestore:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	Selector            string    `firestore:"selector,omitempty"`
	PagesKey            string    `firestore:"pagesKey,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	ExtractedPages      []int     `firestore:"extractedPages,omitempty"`
	OutputURI           string    `firestore:"outputUri,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
	UpdatedAt           time.Time `firestore:"updatedAt,omitempty"`
}

// ExtractionResult is what a single extraction produced.
// ExtractedPages keeps the order the pages were copied in.
type ExtractionResult struct {
	ExtractedPages []int        `json:"extractedPages"`
	TotalPages     int          `json:"totalPages"`
	Diagnostics    []Diagnostic `json:"diagnostics,omitempty"`
	OutputName     string       `json:"outputName,omitempty"`
}

// PagePreview is a short text snippet for one page.
type PagePreview struct {
	PageNumber int    `json:"pageNumber"`
	Preview    string `json:"preview"`
}

// DocumentPreview summarises an uploaded document before extraction.
type DocumentPreview struct {
	TotalPages int           `json:"totalPages"`
	Pages      []PagePreview `json:"pages"`
}
