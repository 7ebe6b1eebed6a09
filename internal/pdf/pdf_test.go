package pdf

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pagepick/internal/models"
)

func TestCheckHeader(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"pdf", "%PDF-1.7\n...", nil},
		{"exact magic", "%PDF", nil},
		{"png", "\x89PNG\r\n", models.ErrNotPDF},
		{"short", "%P", models.ErrNotPDF},
		{"empty", "", models.ErrNotPDF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := strings.NewReader(tt.content)
			err := CheckHeader(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			rest, _ := io.ReadAll(r)
			assert.Equal(t, tt.content, string(rest), "reader was not rewound")
		})
	}
}

func TestOpen_RejectsGarbage(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("%PDF-1.4 this is not really a pdf")))
	assert.Error(t, err)
}

func TestPageCountFile_MissingFile(t *testing.T) {
	_, err := PageCountFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestPreview_MissingFile(t *testing.T) {
	_, err := Preview(filepath.Join(t.TempDir(), "missing.pdf"), 10, 200)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "页面", truncate("页面提取", 2))
	assert.Equal(t, "abc", truncate("abc", 0))
}

func TestNewConfiguration_Relaxed(t *testing.T) {
	cfg := NewConfiguration()
	require.NotNil(t, cfg)
	assert.Equal(t, model.ValidationRelaxed, cfg.ValidationMode)
}

// buildPDF returns a PDF whose page i (1-based) is 100*i points wide, so pages
// can be told apart by their dimensions.
func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 1; i <= pages; i++ {
		objects = append(objects, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 500] /Resources << >> >>", 100*i))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pageWidths(t *testing.T, data []byte) []float64 {
	t.Helper()
	dims, err := api.PageDims(bytes.NewReader(data), NewConfiguration())
	require.NoError(t, err)
	widths := make([]float64, len(dims))
	for i, d := range dims {
		widths[i] = d.Width
	}
	return widths
}

func TestWritePages_OrderAndDuplicates(t *testing.T) {
	doc, err := Open(bytes.NewReader(buildPDF(t, 4)))
	require.NoError(t, err)
	require.Equal(t, 4, doc.PageCount())

	var out bytes.Buffer
	require.NoError(t, doc.WritePages(&out, []int{3, 1, 3}))

	assert.Equal(t, []float64{300, 100, 300}, pageWidths(t, out.Bytes()))
}

func TestWritePages_SameSelectionSamePages(t *testing.T) {
	src := buildPDF(t, 5)

	var widths [][]float64
	for i := 0; i < 2; i++ {
		doc, err := Open(bytes.NewReader(src))
		require.NoError(t, err)
		var out bytes.Buffer
		require.NoError(t, doc.WritePages(&out, []int{2, 4, 5}))
		widths = append(widths, pageWidths(t, out.Bytes()))
	}
	assert.Equal(t, []float64{200, 400, 500}, widths[0])
	assert.Equal(t, widths[0], widths[1])
}

func TestWritePages_NoPages(t *testing.T) {
	doc, err := Open(bytes.NewReader(buildPDF(t, 2)))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, doc.WritePages(&out, nil))
	require.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF")))

	n, err := api.PageCount(bytes.NewReader(out.Bytes()), NewConfiguration())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
