package models

import "errors"

var (
	ErrInvalidDocument = errors.New("source is not a readable PDF document")
	ErrNoPagesSelected = errors.New("no valid pages selected")
	ErrNotPDF          = errors.New("file is not a PDF")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrTooManyFiles    = errors.New("too many files in batch")
	ErrMissingSelector = errors.New("no page selector provided")
)
