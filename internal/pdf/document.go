// Package pdf binds page extraction to pdfcpu.
package pdf

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document is a parsed PDF held in memory.
type Document struct {
	ctx *model.Context
}

// NewConfiguration returns the pdfcpu configuration used for every read.
// Validation is relaxed so slightly broken producer output still opens.
func NewConfiguration() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Open reads, validates and optimizes the PDF in rs.
func Open(rs io.ReadSeeker) (*Document, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, NewConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return &Document{ctx: ctx}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// WritePages writes a new PDF made of pages, in the given order, to w.
// Page numbers are 1-based and must be in range. No pages writes an empty document.
func (d *Document) WritePages(w io.Writer, pages []int) error {
	var (
		out *model.Context
		err error
	)
	if len(pages) == 0 {
		out, err = pdfcpu.CreateContextWithXRefTable(nil, types.PaperSize["A4"])
	} else {
		out, err = pdfcpu.ExtractPages(d.ctx, pages, false)
	}
	if err != nil {
		return fmt.Errorf("failed to assemble pages: %w", err)
	}
	if err := api.WriteContext(out, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// PageCountFile opens the PDF at path just long enough to count its pages.
func PageCountFile(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}
