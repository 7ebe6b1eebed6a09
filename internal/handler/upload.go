package handler

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/pdf"
	"github.com/Lllllllleong/pagepick/internal/selector"
	"github.com/Lllllllleong/pagepick/internal/workspace"
)

// saveUpload validates an uploaded PDF and copies it into ws under name.
func saveUpload(ws *workspace.Workspace, fh *multipart.FileHeader, name string, maxSize int64) (string, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return "", fmt.Errorf("%s: %w", fh.Filename, models.ErrFileTooLarge)
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer file.Close()

	if err := pdf.CheckHeader(file); err != nil {
		return "", fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return ws.Save(name, file)
}

// formInt reads an optional integer form field.
func formInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", selector.ErrInvalidRange, field)
	}
	return n, nil
}
