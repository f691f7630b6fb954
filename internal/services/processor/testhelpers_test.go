package processor

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/require"
)

func newTestPDF(t *testing.T, pages int) []byte {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, fmt.Sprintf("Body text of page %d", i))
	}

	var buffer bytes.Buffer
	require.NoError(t, pdf.Output(&buffer))
	return buffer.Bytes()
}

func readTestContext(t *testing.T, data []byte) *model.Context {
	t.Helper()

	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration())
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())
	return ctx
}

// pageContent concatenates the decoded content streams of a page.
func pageContent(t *testing.T, ctx *model.Context, pageNr int) string {
	t.Helper()

	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)

	obj, found := pageDict.Find("Contents")
	require.True(t, found)

	deref, err := ctx.Dereference(obj)
	require.NoError(t, err)

	refs := []types.Object{obj}
	if arr, ok := deref.(types.Array); ok {
		refs = arr
	}

	var buffer bytes.Buffer
	for _, ref := range refs {
		sd, _, err := ctx.DereferenceStreamDict(ref)
		require.NoError(t, err)
		require.NotNil(t, sd)
		require.NoError(t, sd.Decode())
		buffer.Write(sd.Content)
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// buildRawPDF serializes objects numbered from 1 into a PDF with a valid
// cross reference table. Object 1 must be the catalog.
func buildRawPDF(t *testing.T, objects []string) []byte {
	t.Helper()

	var buffer bytes.Buffer
	buffer.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buffer.Len()
		fmt.Fprintf(&buffer, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buffer.Len()
	fmt.Fprintf(&buffer, "xref\n0 %d\n", len(objects)+1)
	buffer.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buffer, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buffer, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buffer.Bytes()
}

// newInheritedResourcesPDF builds a one page PDF whose MediaBox and
// Resources live on the /Pages node only.
func newInheritedResourcesPDF(t *testing.T, content string) []byte {
	t.Helper()

	return buildRawPDF(t, []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> >>",
		"<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	})
}

// pageFonts returns the font resource names visible on a page, looking at the
// page's own /Resources only.
func pageFonts(t *testing.T, ctx *model.Context, pageNr int) []string {
	t.Helper()

	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)

	obj, found := pageDict.Find("Resources")
	require.True(t, found, "page %d has no own resources", pageNr)
	resDict, err := ctx.DereferenceDict(obj)
	require.NoError(t, err)

	fontObj, found := resDict.Find("Font")
	require.True(t, found)
	fontDict, err := ctx.DereferenceDict(fontObj)
	require.NoError(t, err)

	var names []string
	for name := range fontDict {
		names = append(names, name)
	}
	return names
}
