package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Lllllllleong/pagepick/internal/models"
)

var magic = []byte("%PDF")

// CheckHeader reports models.ErrNotPDF unless r starts with the PDF magic
// bytes. The reader is rewound afterwards.
func CheckHeader(r io.ReadSeeker) error {
	buf := make([]byte, len(magic))
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file position: %w", err)
	}
	if n < len(magic) || !bytes.Equal(buf, magic) {
		return models.ErrNotPDF
	}
	return nil
}
