// Package workspace provides request-scoped scratch directories for uploads
// and extraction outputs. A Workspace is removed with everything in it on Close.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const dirPermissions = 0o755

// Workspace is a private scratch directory owned by one request or event.
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// New creates a unique directory under root. An empty root means os.TempDir().
// The label shows up in the directory name to make leftovers traceable.
func New(root, label string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %s: %w", root, err)
	}
	if label == "" {
		label = "pagepick"
	}
	dir, err := os.MkdirTemp(root, fmt.Sprintf("%s-%s-*", SanitizeFilename(label), uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the location of name inside the workspace. The name is
// sanitized so it can never escape the directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, SanitizeFilename(name))
}

// Save copies r into a file called name and returns its path.
func (w *Workspace) Save(name string, r io.Reader) (string, error) {
	path := w.Path(name)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file at %s: %w", path, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// Close removes the workspace. Later calls return the first result.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.dir)
	})
	return w.err
}

// SanitizeFilename removes path traversal attempts and separators.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.TrimSpace(filepath.Base(filename))

	if filename == "" || filename == "." {
		filename = "document.pdf"
	}
	return filename
}

// TimestampedName builds names like "extracted_20240102_150405.pdf".
func TimestampedName(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s%s", prefix, t.Format("20060102_150405"), ext)
}

// OutputName is the name an extracted copy of original gets, e.g. "extracted_report.pdf".
func OutputName(original string) string {
	return "extracted_" + SanitizeFilename(original)
}
