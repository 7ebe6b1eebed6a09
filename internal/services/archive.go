package services

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/pagepick/internal/models"
)

// ManifestName is the name of the summary file inside a batch archive.
const ManifestName = "manifest.json"

// Manifest summarises batch outcomes.
func Manifest(outcomes []BatchOutcome) models.BatchManifest {
	manifest := models.BatchManifest{Entries: make([]models.BatchEntry, 0, len(outcomes))}
	for _, o := range outcomes {
		entry := models.BatchEntry{Filename: o.Name, Status: o.Status}
		if o.Result != nil {
			entry.TotalPages = o.Result.TotalPages
			entry.ExtractedPages = o.Result.ExtractedPages
			entry.Diagnostics = o.Result.Diagnostics
		}
		if o.OutputPath != "" {
			entry.OutputName = filepath.Base(o.OutputPath)
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}

		switch o.Status {
		case BatchSucceeded:
			manifest.Succeeded++
		case BatchSkipped:
			manifest.Skipped++
		default:
			manifest.Failed++
		}
		manifest.Entries = append(manifest.Entries, entry)
	}
	return manifest
}

// WriteArchive writes a zip holding every successful output and a manifest.
func WriteArchive(w io.Writer, outcomes []BatchOutcome) error {
	zw := zip.NewWriter(w)

	for _, o := range outcomes {
		if o.Status != BatchSucceeded {
			continue
		}
		if err := addFile(zw, o.OutputPath); err != nil {
			zw.Close()
			return err
		}
	}

	entry, err := zw.Create(ManifestName)
	if err != nil {
		zw.Close()
		return fmt.Errorf("failed to create manifest entry: %w", err)
	}
	enc := json.NewEncoder(entry)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Manifest(outcomes)); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open output %s: %w", path, err)
	}
	defer f.Close()

	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("failed to copy %s into archive: %w", path, err)
	}
	return nil
}
