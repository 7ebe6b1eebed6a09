package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/selector"
	"github.com/Lllllllleong/pagepick/internal/workspace"
)

// Batch outcome statuses, also used in the archive manifest.
const (
	BatchSucceeded = "succeeded"
	BatchFailed    = "failed"
	BatchSkipped   = "skipped"
	BatchCancelled = "cancelled"
)

// BatchItem is one source document of a batch.
type BatchItem struct {
	Name       string
	SourcePath string
	Spec       selector.Spec
}

// BatchOutcome reports what happened to one BatchItem.
type BatchOutcome struct {
	Name       string
	OutputPath string
	Status     string
	Result     *models.ExtractionResult
	Err        error
}

// ProcessBatch runs the items one after another, writing outputs into outDir.
// A failing item does not stop the others. Cancellation of ctx is honoured
// between items only; items not started are reported as cancelled.
func (e *Extractor) ProcessBatch(ctx context.Context, items []BatchItem, outDir string) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(items))
	used := make(map[string]bool, len(items))

	for i, item := range items {
		outcome := BatchOutcome{Name: item.Name}
		if err := ctx.Err(); err != nil {
			outcome.Status = BatchCancelled
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}

		outputName := uniqueName(workspace.OutputName(item.Name), used)
		outcome.OutputPath = filepath.Join(outDir, outputName)

		logCtx := slog.With("batchIndex", i, "file", item.Name)
		result, err := e.Process(ctx, Request{
			SourcePath: item.SourcePath,
			OutputPath: outcome.OutputPath,
			Spec:       item.Spec,
		})
		outcome.Result = result
		outcome.Err = err

		switch {
		case err == nil:
			outcome.Status = BatchSucceeded
		case errors.Is(err, models.ErrNoPagesSelected):
			outcome.Status = BatchSkipped
			outcome.OutputPath = ""
		default:
			outcome.Status = BatchFailed
			outcome.OutputPath = ""
			logCtx.Warn("Batch item failed, continuing with the rest.", "error", err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// uniqueName returns name, or name with a numeric suffix when it was already used.
func uniqueName(name string, used map[string]bool) string {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
	}
	used[candidate] = true
	return candidate
}
