package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pagepick/internal/config"
	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/services"
)

var (
	extractorInstance *services.PageExtractorFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Uploads carrying selector metadata arrive as storage finalize events.
	// Workflow steps call the HTTP entry point instead.
	functions.CloudEvent("ExtractOnUpload", extractOnUpload)
	functions.HTTP("HandleExtractPages", handleExtractPages)
}

// main is required by the Go Functions Framework.
func main() {}

func instance() (*services.PageExtractorFunction, error) {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		slog.SetDefault(cfg.Log.NewLogger(os.Stdout))
		extractorInstance, initErr = services.NewPageExtractorFromConfig(context.Background(), cfg)
	})
	return extractorInstance, initErr
}

// extractOnUpload is the CloudEvent entry point.
func extractOnUpload(ctx context.Context, e cloudevents.Event) error {
	fn, err := instance()
	if err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		return err
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return fn.Process(ctx, gcsEvent)
}

// handleExtractPages is the HTTP entry point used by workflows.
func handleExtractPages(w http.ResponseWriter, r *http.Request) {
	fn, err := instance()
	if err != nil {
		slog.Error("Page extractor initialization failed.", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body.", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := fn.HandleRequest(r.Context(), &req)
	if err != nil {
		if !services.IsPermanent(err) {
			http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
			return
		}
		// Retrying will not help; report the failure with any diagnostics.
		if res == nil {
			res = &models.ExtractResponse{ExtractedPages: []int{}}
		}
		res.Status = models.StatusFailed
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
