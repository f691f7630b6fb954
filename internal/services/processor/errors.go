package processor

import "errors"

var (
	ErrEmptyPhrase     = errors.New("no watermark phrase given")
	ErrNoFile          = errors.New("no PDF file given")
	ErrInvalidDocument = errors.New("invalid PDF document")
	ErrIO              = errors.New("PDF I/O failure")
	ErrFileTooLarge    = errors.New("PDF file too large")
)
