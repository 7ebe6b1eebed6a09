// Package selector turns user supplied page selectors such as "1,3,5-8,10-"
// into an ascending, duplicate-free list of 1-based page numbers.
package selector

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/Lllllllleong/pagepick/internal/models"
)

var (
	ErrInvalidRange = errors.New("invalid page range")
	ErrUnknownMode  = errors.New("unknown selection mode")
)

// Mode is the way pages are chosen for one document.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeRange  Mode = "range"
	ModeOdd    Mode = "odd"
	ModeEven   Mode = "even"
)

// ParseMode maps a user supplied mode name to a Mode. The empty string is manual.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeManual, nil
	case ModeManual, ModeRange, ModeOdd, ModeEven:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Selection is the evaluated selector. Pages is ascending and duplicate-free.
type Selection struct {
	Pages       []int               `json:"pages"`
	Diagnostics []models.Diagnostic `json:"diagnostics,omitempty"`
}

// Spec describes how to select pages from one document.
// Text is used by ModeManual; Start and End by ModeRange.
type Spec struct {
	Mode  Mode
	Text  string
	Start int
	End   int
}

// NewSpec builds a Spec from request fields. Manual mode needs selector text.
func NewSpec(mode, text string, start, end int) (Spec, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return Spec{}, err
	}
	s := Spec{Mode: m, Text: strings.TrimSpace(text), Start: start, End: end}
	if m == ModeManual && s.Text == "" {
		return Spec{}, models.ErrMissingSelector
	}
	return s, nil
}

// String renders the spec for logs and ledger records.
func (s Spec) String() string {
	switch s.Mode {
	case ModeRange:
		return fmt.Sprintf("range:%d-%d", s.Start, s.End)
	case ModeOdd, ModeEven:
		return string(s.Mode)
	default:
		return s.Text
	}
}

// Resolve evaluates the spec against a document of totalPages pages.
func (s Spec) Resolve(totalPages int) (Selection, error) {
	switch s.Mode {
	case "", ModeManual:
		return Parse(s.Text, totalPages), nil
	case ModeRange:
		pages, err := Range(s.Start, s.End, totalPages)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Pages: pages}, nil
	case ModeOdd:
		return Selection{Pages: Odd(totalPages)}, nil
	case ModeEven:
		return Selection{Pages: Even(totalPages)}, nil
	default:
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownMode, s.Mode)
	}
}

// Parse evaluates selector text against a document of totalPages pages.
//
// Tokens are separated by commas (the full-width comma is accepted too).
// "-N" selects 1..N, "N-" selects N..totalPages, "A-B" selects A..B and a
// bare number selects one page. Range ends are clamped to the document; a
// range that is empty after clamping adds nothing. Malformed tokens and
// out-of-range single pages are reported as diagnostics and skipped.
func Parse(text string, totalPages int) Selection {
	sel := Selection{Pages: []int{}}
	if text == "" {
		return sel
	}
	if totalPages < 0 {
		totalPages = 0
	}

	var pages []int
	for _, token := range strings.Split(strings.ReplaceAll(text, "，", ","), ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if !strings.Contains(token, "-") {
			page, err := atoi(token)
			if err != nil {
				sel.Diagnostics = append(sel.Diagnostics, models.Diagnostic{
					Kind:    models.DiagnosticInvalidPage,
					Token:   token,
					Message: fmt.Sprintf("ignoring invalid page number %s", strconv.QuoteToASCII(token)),
				})
				continue
			}
			if page < 1 || page > totalPages {
				sel.Diagnostics = append(sel.Diagnostics, models.Diagnostic{
					Kind:    models.DiagnosticOutOfRange,
					Token:   token,
					Page:    page,
					Message: fmt.Sprintf("page %d does not exist, document has %d pages", page, totalPages),
				})
				continue
			}
			pages = append(pages, page)
			continue
		}

		start, end, err := rangeBounds(token, totalPages)
		if err != nil {
			sel.Diagnostics = append(sel.Diagnostics, models.Diagnostic{
				Kind:    models.DiagnosticInvalidRange,
				Token:   token,
				Message: fmt.Sprintf("ignoring invalid range %s", strconv.QuoteToASCII(token)),
			})
			continue
		}
		start = max(1, start)
		end = min(totalPages, end)
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
	}

	slices.Sort(pages)
	sel.Pages = append(sel.Pages, slices.Compact(pages)...)
	return sel
}

// rangeBounds reads the unclamped bounds of a token containing a hyphen.
func rangeBounds(token string, totalPages int) (int, int, error) {
	switch {
	case strings.HasPrefix(token, "-"):
		end, err := atoi(token[1:])
		return 1, end, err
	case strings.HasSuffix(token, "-"):
		start, err := atoi(token[:len(token)-1])
		return start, totalPages, err
	default:
		// Only the first two parts count, "1-5-9" reads as 1-5.
		parts := strings.Split(token, "-")
		start, err := atoi(parts[0])
		if err != nil {
			return 0, 0, err
		}
		end, err := atoi(parts[1])
		return start, end, err
	}
}

// atoi accepts surrounding whitespace and full-width digits. Integers that do
// not fit in an int saturate, so they still clamp like any other bound.
func atoi(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(width.Narrow.String(s)))
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

// Range selects start..end inclusive. Both ends must lie within the document.
func Range(start, end, totalPages int) ([]int, error) {
	if start > end {
		return nil, fmt.Errorf("%w: start page %d is after end page %d", ErrInvalidRange, start, end)
	}
	if start < 1 || end > totalPages {
		return nil, fmt.Errorf("%w: %d-%d outside 1-%d", ErrInvalidRange, start, end, totalPages)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages, nil
}

// Odd selects pages 1, 3, 5, ...
func Odd(totalPages int) []int {
	return every(1, totalPages)
}

// Even selects pages 2, 4, 6, ...
func Even(totalPages int) []int {
	return every(2, totalPages)
}

func every(first, totalPages int) []int {
	pages := []int{}
	for p := first; p <= totalPages; p += 2 {
		pages = append(pages, p)
	}
	return pages
}
