package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/pagepick/internal/gcp"
	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/pdf"
	"github.com/Lllllllleong/pagepick/internal/selector"
)

// Document is an opened source document that pages can be copied out of.
type Document interface {
	PageCount() int
	// WritePages serializes a new document holding pages, in order, to w.
	WritePages(w io.Writer, pages []int) error
}

// OpenFunc parses a source document.
type OpenFunc func(rs io.ReadSeeker) (Document, error)

func openPDF(rs io.ReadSeeker) (Document, error) {
	doc, err := pdf.Open(rs)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Extract copies the in-range entries of pages, in the order given, from doc
// into a new document written to w. Out-of-range entries are skipped with a
// diagnostic. Pages are neither deduplicated nor reordered.
func Extract(doc Document, pages []int, w io.Writer) (*models.ExtractionResult, error) {
	total := doc.PageCount()
	result := &models.ExtractionResult{ExtractedPages: []int{}, TotalPages: total}

	for _, page := range pages {
		if page < 1 || page > total {
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Kind:    models.DiagnosticOutOfRange,
				Page:    page,
				Message: fmt.Sprintf("page %d does not exist, document has %d pages", page, total),
			})
			continue
		}
		result.ExtractedPages = append(result.ExtractedPages, page)
	}

	if err := doc.WritePages(w, result.ExtractedPages); err != nil {
		return nil, err
	}
	return result, nil
}

// ExtractionService is what the HTTP handlers need from an Extractor.
type ExtractionService interface {
	PageCount(ctx context.Context, path string) (int, error)
	Preview(ctx context.Context, path string, maxPages, maxChars int) (*models.DocumentPreview, error)
	Process(ctx context.Context, req Request) (*models.ExtractionResult, error)
	ProcessBatch(ctx context.Context, items []BatchItem, outDir string) []BatchOutcome
}

// Request is one parse-then-extract cycle over a local source file.
type Request struct {
	SourcePath string
	OutputPath string
	Spec       selector.Spec
}

// Extractor runs extraction against files on local disk.
type Extractor struct {
	open OpenFunc
}

// NewExtractor returns an Extractor backed by pdfcpu.
func NewExtractor() *Extractor {
	return &Extractor{open: openPDF}
}

// NewExtractorWithOpener returns an Extractor that parses sources with open.
func NewExtractorWithOpener(open OpenFunc) *Extractor {
	return &Extractor{open: open}
}

// Source is a parsed source document. It is opened once and serves both the
// page count and the extraction.
type Source struct {
	f   *os.File
	doc Document
}

// Open opens and parses the source at path. The caller closes the Source.
func (e *Extractor) Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", path, err)
	}
	doc, err := e.open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidDocument, err)
	}
	return &Source{f: f, doc: doc}, nil
}

// PageCount returns the number of pages of the source.
func (s *Source) PageCount() int { return s.doc.PageCount() }

func (s *Source) Close() error { return s.f.Close() }

// ExtractTo extracts pages into dstPath. The output is assembled in a
// temporary sibling and only renamed into place once complete.
func (s *Source) ExtractTo(dstPath string, pages []int) (*models.ExtractionResult, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".partial-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()
	finalized := false
	defer func() {
		if !finalized {
			os.Remove(tmpPath)
		}
	}()

	result, err := Extract(s.doc, pages, tmp)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to extract pages: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize output: %w", err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		return nil, fmt.Errorf("failed to move output into place: %w", err)
	}
	finalized = true

	result.OutputName = filepath.Base(dstPath)
	return result, nil
}

// PageCount returns the number of pages of the source at path.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	src, err := e.Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return src.PageCount(), nil
}

// Preview summarises the first pages of the source at path.
func (e *Extractor) Preview(ctx context.Context, path string, maxPages, maxChars int) (*models.DocumentPreview, error) {
	if _, err := e.PageCount(ctx, path); err != nil {
		return nil, err
	}
	return pdf.Preview(path, maxPages, maxChars)
}

// ExtractFile extracts pages from srcPath into dstPath.
func (e *Extractor) ExtractFile(ctx context.Context, srcPath, dstPath string, pages []int) (*models.ExtractionResult, error) {
	src, err := e.Open(srcPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.ExtractTo(dstPath, pages)
}

// Process counts the source pages, resolves the selector against that count
// and extracts the selection. When nothing valid is selected it returns
// models.ErrNoPagesSelected together with a result carrying the diagnostics.
func (e *Extractor) Process(ctx context.Context, req Request) (*models.ExtractionResult, error) {
	logCtx := slog.With("source", filepath.Base(req.SourcePath), "selector", req.Spec.String())

	src, err := e.Open(req.SourcePath)
	if err != nil {
		logCtx.Warn("Failed to open source document.", "error", err)
		return nil, err
	}
	defer src.Close()
	total := src.PageCount()

	sel, err := req.Spec.Resolve(total)
	if err != nil {
		return nil, err
	}
	if len(sel.Pages) == 0 {
		logCtx.Info("Selector matched no pages.", "totalPages", total, "diagnostics", len(sel.Diagnostics))
		return &models.ExtractionResult{
			ExtractedPages: []int{},
			TotalPages:     total,
			Diagnostics:    sel.Diagnostics,
		}, models.ErrNoPagesSelected
	}

	result, err := src.ExtractTo(req.OutputPath, sel.Pages)
	if err != nil {
		logCtx.Error("Extraction failed.", "error", err)
		return nil, err
	}
	result.Diagnostics = append(sel.Diagnostics, result.Diagnostics...)
	logCtx.Info("Pages extracted.", "totalPages", result.TotalPages, "extracted", len(result.ExtractedPages))
	return result, nil
}

// IsPermanent reports whether err comes from the request itself, so retrying
// with the same input cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, models.ErrInvalidDocument) ||
		errors.Is(err, models.ErrNoPagesSelected) ||
		errors.Is(err, models.ErrMissingSelector) ||
		errors.Is(err, selector.ErrInvalidRange) ||
		errors.Is(err, selector.ErrUnknownMode) ||
		errors.Is(err, gcp.ErrInvalidURI)
}
