package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Test documents are text files of the form "FAKEPDF <pages>". A trailing
// "broken" makes WritePages fail.

var FakeOpener OpenFunc = fakeOpen

type fakeDoc struct {
	total     int
	failWrite bool
}

func (d *fakeDoc) PageCount() int { return d.total }

func (d *fakeDoc) WritePages(w io.Writer, pages []int) error {
	if d.failWrite {
		return errors.New("write failed")
	}
	_, err := fmt.Fprintf(w, "pages:%s", PagesKey(pages))
	return err
}

func fakeOpen(rs io.ReadSeeker) (Document, error) {
	data, err := io.ReadAll(rs)
	if err != nil {
		return nil, err
	}
	var n int
	if _, err := fmt.Sscanf(string(data), "FAKEPDF %d", &n); err != nil {
		return nil, errors.New("not a fake pdf")
	}
	return &fakeDoc{total: n, failWrite: strings.Contains(string(data), "broken")}, nil
}

// CountingOpener wraps FakeOpener and counts how often a source is parsed.
func CountingOpener(n *atomic.Int32) OpenFunc {
	return func(rs io.ReadSeeker) (Document, error) {
		n.Add(1)
		return fakeOpen(rs)
	}
}

// SetClock replaces the clock used for output names.
func (f *PageExtractorFunction) SetClock(now func() time.Time) { f.now = now }

func WriteFakePDF(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("FAKEPDF %d", pages)), 0o644))
	return p
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
