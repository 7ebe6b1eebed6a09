package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/selector"
)

func TestExtract_KeepsOrderAndDuplicates(t *testing.T) {
	var buf bytes.Buffer
	result, err := Extract(&fakeDoc{total: 5}, []int{3, 1, 3, 9, 0}, &buf)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1, 3}, result.ExtractedPages)
	assert.Equal(t, 5, result.TotalPages)
	assert.Equal(t, "pages:3,1,3", buf.String())

	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, models.DiagnosticOutOfRange, result.Diagnostics[0].Kind)
	assert.Equal(t, 9, result.Diagnostics[0].Page)
	assert.Equal(t, 0, result.Diagnostics[1].Page)
}

func TestExtract_EmptySelectionStillWrites(t *testing.T) {
	var buf bytes.Buffer
	result, err := Extract(&fakeDoc{total: 2}, nil, &buf)
	require.NoError(t, err)
	assert.Empty(t, result.ExtractedPages)
	assert.NotNil(t, result.ExtractedPages)
	assert.Equal(t, "pages:", buf.String())
}

func TestExtract_WriteError(t *testing.T) {
	var buf bytes.Buffer
	_, err := Extract(&fakeDoc{total: 2, failWrite: true}, []int{1}, &buf)
	assert.Error(t, err)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	src := WriteFakePDF(t, dir, "in.pdf", 4)
	dst := filepath.Join(dir, "out.pdf")

	e := NewExtractorWithOpener(FakeOpener)
	result, err := e.ExtractFile(context.Background(), src, dst, []int{2, 4})
	require.NoError(t, err)

	assert.Equal(t, "out.pdf", result.OutputName)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pages:2,4", string(data))

	partials, _ := filepath.Glob(filepath.Join(dir, ".partial-*"))
	assert.Empty(t, partials)
}

func TestExtractFile_FailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "in.pdf", "FAKEPDF 4 broken")
	dst := filepath.Join(dir, "out.pdf")

	e := NewExtractorWithOpener(FakeOpener)
	_, err := e.ExtractFile(context.Background(), src, dst, []int{1})
	require.Error(t, err)

	assert.NoFileExists(t, dst)
	partials, _ := filepath.Glob(filepath.Join(dir, ".partial-*"))
	assert.Empty(t, partials)
}

func TestExtractFile_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "in.pdf", "hello")

	e := NewExtractorWithOpener(FakeOpener)
	_, err := e.ExtractFile(context.Background(), src, filepath.Join(dir, "out.pdf"), []int{1})
	assert.ErrorIs(t, err, models.ErrInvalidDocument)
	assert.NoFileExists(t, filepath.Join(dir, "out.pdf"))
}

func TestPageCount(t *testing.T) {
	dir := t.TempDir()
	e := NewExtractorWithOpener(FakeOpener)

	n, err := e.PageCount(context.Background(), WriteFakePDF(t, dir, "a.pdf", 7))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = e.PageCount(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrInvalidDocument)
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	src := WriteFakePDF(t, dir, "in.pdf", 5)
	dst := filepath.Join(dir, "out.pdf")

	e := NewExtractorWithOpener(FakeOpener)
	result, err := e.Process(context.Background(), Request{
		SourcePath: src,
		OutputPath: dst,
		Spec:       selector.Spec{Mode: selector.ModeManual, Text: "4-,1,9,x"},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 4, 5}, result.ExtractedPages)
	assert.Equal(t, 5, result.TotalPages)
	assert.Len(t, result.Diagnostics, 2)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pages:1,4,5", string(data))
}

func TestProcess_OpensSourceOnce(t *testing.T) {
	dir := t.TempDir()
	src := WriteFakePDF(t, dir, "in.pdf", 4)

	var opens atomic.Int32
	e := NewExtractorWithOpener(CountingOpener(&opens))
	_, err := e.Process(context.Background(), Request{
		SourcePath: src,
		OutputPath: filepath.Join(dir, "out.pdf"),
		Spec:       selector.Spec{Mode: selector.ModeOdd},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), opens.Load())
}

func TestProcess_Idempotent(t *testing.T) {
	dir := t.TempDir()
	src := WriteFakePDF(t, dir, "in.pdf", 6)
	e := NewExtractorWithOpener(FakeOpener)
	spec := selector.Spec{Mode: selector.ModeEven}

	var outputs [][]byte
	for _, name := range []string{"a.pdf", "b.pdf"} {
		dst := filepath.Join(dir, name)
		_, err := e.Process(context.Background(), Request{SourcePath: src, OutputPath: dst, Spec: spec})
		require.NoError(t, err)
		data, err := os.ReadFile(dst)
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, "pages:2,4,6", string(outputs[0]))
}

func TestProcess_NoPagesSelected(t *testing.T) {
	dir := t.TempDir()
	src := WriteFakePDF(t, dir, "in.pdf", 3)
	dst := filepath.Join(dir, "out.pdf")

	e := NewExtractorWithOpener(FakeOpener)
	result, err := e.Process(context.Background(), Request{
		SourcePath: src,
		OutputPath: dst,
		Spec:       selector.Spec{Text: "7,8"},
	})
	assert.ErrorIs(t, err, models.ErrNoPagesSelected)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.TotalPages)
	assert.Len(t, result.Diagnostics, 2)
	assert.NoFileExists(t, dst)
}

func TestProcess_InvalidRange(t *testing.T) {
	dir := t.TempDir()
	src := WriteFakePDF(t, dir, "in.pdf", 3)

	e := NewExtractorWithOpener(FakeOpener)
	_, err := e.Process(context.Background(), Request{
		SourcePath: src,
		OutputPath: filepath.Join(dir, "out.pdf"),
		Spec:       selector.Spec{Mode: selector.ModeRange, Start: 2, End: 9},
	})
	assert.ErrorIs(t, err, selector.ErrInvalidRange)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(models.ErrInvalidDocument))
	assert.True(t, IsPermanent(models.ErrNoPagesSelected))
	assert.True(t, IsPermanent(selector.ErrUnknownMode))
	assert.False(t, IsPermanent(errors.New("network down")))
	assert.False(t, IsPermanent(nil))
}

func TestPagesKey(t *testing.T) {
	assert.Equal(t, "1,3,10", PagesKey([]int{1, 3, 10}))
	assert.Equal(t, "", PagesKey(nil))
}
