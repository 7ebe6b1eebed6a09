package models

// DiagnosticKind classifies a non-fatal problem found while selecting or copying pages.
type DiagnosticKind string

const (
	DiagnosticInvalidRange DiagnosticKind = "invalid_range"
	DiagnosticInvalidPage  DiagnosticKind = "invalid_page"
	DiagnosticOutOfRange   DiagnosticKind = "out_of_range"
)

// Diagnostic reports a skipped token or page. It never aborts processing.
// Message is ASCII only.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Token   string         `json:"token,omitempty"`
	Page    int            `json:"page,omitempty"`
	Message string         `json:"message"`
}
