package processor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phambaophuc/pdf-watermark/internal/models"
)

func init() {
	// pdfcpu would otherwise create a config dir under the user's home.
	api.DisableConfigDir()
}

type PDFProcessor struct{}

func NewPDFProcessor() *PDFProcessor {
	return &PDFProcessor{}
}

// Stamp reads the PDF from rs and writes a copy with phrase stamped onto the
// pages selected by mode. Nothing is written to w unless the whole document
// was stamped and serialized.
func (p *PDFProcessor) Stamp(rs io.ReadSeeker, w io.Writer, phrase string, mode models.WatermarkMode) error {
	if strings.TrimSpace(phrase) == "" {
		return ErrEmptyPhrase
	}

	ctx, err := p.readContext(rs)
	if err != nil {
		return err
	}

	if err := stampDocument(ctx, phrase, mode); err != nil {
		return err
	}

	buffer := &bytes.Buffer{}
	if err := api.WriteContext(ctx, buffer); err != nil {
		return fmt.Errorf("%w: failed to serialize document: %v", ErrIO, err)
	}

	if _, err := io.Copy(w, buffer); err != nil {
		return fmt.Errorf("%w: failed to write output: %v", ErrIO, err)
	}

	return nil
}

// StampFile is the path based variant of Stamp. The destination is removed
// again if stamping fails.
func (p *PDFProcessor) StampFile(inPath, outPath, phrase string, mode models.WatermarkMode) (err error) {
	if strings.TrimSpace(phrase) == "" {
		return ErrEmptyPhrase
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", ErrIO, inPath, err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrIO, outPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close %s: %v", ErrIO, outPath, cerr)
		}
		if err != nil {
			os.Remove(outPath)
		}
	}()

	return p.Stamp(in, out, phrase, mode)
}

// PageCount returns the number of pages of the PDF read from rs.
func (p *PDFProcessor) PageCount(rs io.ReadSeeker) (int, error) {
	ctx, err := p.readContext(rs)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

func (p *PDFProcessor) readContext(rs io.ReadSeeker) (*model.Context, error) {
	ctx, err := api.ReadContext(rs, newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrInvalidDocument)
	}

	return ctx, nil
}

// newConfiguration returns a fresh configuration per call since pdfcpu
// mutates it while processing.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
