package models

// These structs define the JSON payloads exchanged with HTTP callers and the
// Cloud Workflow that drives the page-extractor function.

// ExtractRequest is the input for the HandleExtractPages function.
type ExtractRequest struct {
	SourceGCSUri string `json:"sourceGcsUri"`
	Pages        string `json:"pages"`
	Mode         string `json:"mode,omitempty"`
	Start        int    `json:"start,omitempty"`
	End          int    `json:"end,omitempty"`
	ExecutionID  string `json:"executionId,omitempty"`
}

// ExtractResponse is the output of the HandleExtractPages function.
type ExtractResponse struct {
	Status         string       `json:"status"`
	OutputGCSUri   string       `json:"outputGcsUri,omitempty"`
	ExtractedPages []int        `json:"extractedPages"`
	TotalPages     int          `json:"totalPages"`
	Diagnostics    []Diagnostic `json:"diagnostics,omitempty"`
}

// SelectionRequest asks the server to evaluate a selector without a document.
type SelectionRequest struct {
	Pages      string `json:"pages"`
	TotalPages int    `json:"totalPages"`
	Mode       string `json:"mode,omitempty"`
	Start      int    `json:"start,omitempty"`
	End        int    `json:"end,omitempty"`
}

// SelectionResponse is the evaluated selector.
type SelectionResponse struct {
	Pages       []int        `json:"pages"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// BatchEntry describes the outcome for one file of a batch.
type BatchEntry struct {
	Filename       string       `json:"filename"`
	OutputName     string       `json:"outputName,omitempty"`
	Status         string       `json:"status"`
	Error          string       `json:"error,omitempty"`
	TotalPages     int          `json:"totalPages"`
	ExtractedPages []int        `json:"extractedPages,omitempty"`
	Diagnostics    []Diagnostic `json:"diagnostics,omitempty"`
}

// BatchManifest is written as manifest.json into every batch archive.
type BatchManifest struct {
	Entries   []BatchEntry `json:"entries"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
}
