package processor

import (
	"fmt"
	"io"

	"github.com/phambaophuc/pdf-watermark/pkg/utils"
)

// ValidatePDF checks the upload size and that a PDF header is present. The
// read position is reset to the start on success. Whether the document is
// actually readable is left to pdfcpu.
func (p *PDFProcessor) ValidatePDF(file io.ReadSeeker, maxSize int64) error {
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	if size == 0 {
		return ErrNoFile
	}

	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: file size %d exceeds maximum allowed size %d", ErrFileTooLarge, size, maxSize)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	head := make([]byte, utils.PDFHeaderSearchLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	if !utils.HasPDFHeader(head[:n]) {
		return fmt.Errorf("%w: no PDF header found", ErrInvalidDocument)
	}

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
