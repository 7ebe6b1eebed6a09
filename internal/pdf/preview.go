package pdf

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	pdftext "github.com/ledongthuc/pdf"

	"github.com/Lllllllleong/pagepick/internal/models"
)

// Preview returns a text snippet for each of the first maxPages pages of the
// PDF at path. Snippets are cut to maxChars runes. Pages without extractable
// text get a placeholder.
func Preview(path string, maxPages, maxChars int) (*models.DocumentPreview, error) {
	total, err := PageCountFile(path)
	if err != nil {
		return nil, err
	}

	preview := &models.DocumentPreview{TotalPages: total, Pages: []models.PagePreview{}}
	limit := min(total, maxPages)
	if limit <= 0 {
		return preview, nil
	}

	texts := pageTexts(path, limit)
	for i := 1; i <= limit; i++ {
		text := truncate(strings.TrimSpace(texts[i]), maxChars)
		if text == "" {
			text = fmt.Sprintf("Page %d (no text or image-only)", i)
		}
		preview.Pages = append(preview.Pages, models.PagePreview{PageNumber: i, Preview: text})
	}
	return preview, nil
}

// pageTexts extracts plain text for pages 1..limit. Failures leave pages empty,
// the text layer is best effort.
func pageTexts(path string, limit int) (texts map[int]string) {
	texts = make(map[int]string, limit)
	defer func() {
		// The text reader panics on some malformed content streams.
		_ = recover()
	}()

	f, err := os.Open(path)
	if err != nil {
		return texts
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return texts
	}

	r, err := pdftext.NewReader(f, info.Size())
	if err != nil {
		return texts
	}
	for i := 1; i <= min(limit, r.NumPage()); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i] = text
	}
	return texts
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	return string([]rune(s)[:maxChars])
}
