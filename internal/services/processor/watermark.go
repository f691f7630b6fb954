package processor

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/phambaophuc/pdf-watermark/internal/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	WatermarkFont = "Helvetica"

	EveryPageFontSize     = 10
	EveryPageBottomOffset = 55.0

	LastPageFontSize    = 5
	LastPageRightInset  = 10.0
	LastPageRotation    = math.Pi / 2
	watermarkFontResKey = "FWatermark"
)

// PageBox is the geometry of a page in default user space units.
type PageBox struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

func (b PageBox) Width() float64 {
	return b.Right - b.Left
}

func (b PageBox) Height() float64 {
	return b.Top - b.Bottom
}

// Placement is where a stamp's baseline starts and how it is turned.
type Placement struct {
	FontSize int
	X        float64
	Y        float64
	Rotation float64
}

// TargetPages returns the 1-based page numbers stamped for mode.
func TargetPages(pageCount int, mode models.WatermarkMode) []int {
	if pageCount < 1 {
		return nil
	}

	if mode != models.ModeEveryPage {
		return []int{pageCount}
	}

	pages := make([]int, pageCount)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// PlacementFor computes the stamp position for a page. Every-page stamps are
// centered over the full page width, 55 units above the bottom edge. Last-page
// stamps run bottom to top along the right margin, centered over the page
// height.
func PlacementFor(mode models.WatermarkMode, box PageBox, textWidth float64) Placement {
	if mode == models.ModeEveryPage {
		return Placement{
			FontSize: EveryPageFontSize,
			X:        box.Left + (box.Width()-textWidth)/2,
			Y:        box.Bottom + EveryPageBottomOffset,
		}
	}

	return Placement{
		FontSize: LastPageFontSize,
		X:        box.Right - LastPageRightInset,
		Y:        box.Bottom + (box.Height()-textWidth)/2,
		Rotation: LastPageRotation,
	}
}

func fontSizeFor(mode models.WatermarkMode) int {
	if mode == models.ModeEveryPage {
		return EveryPageFontSize
	}
	return LastPageFontSize
}

// encodePhrase converts phrase to WinAnsiEncoding, the encoding declared on
// the stamp font. Runes without a Windows-1252 code point become '?'.
func encodePhrase(phrase string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	encoded, err := enc.String(phrase)
	if err != nil {
		return phrase
	}
	return encoded
}

func textWidth(encoded string, fontSize int) float64 {
	return font.TextWidth(encoded, WatermarkFont, fontSize)
}

// buildStampContent renders the text operators drawing encoded at p.
func buildStampContent(encoded string, p Placement) []byte {
	sin, cos := math.Sincos(p.Rotation)

	var buffer bytes.Buffer
	buffer.WriteString("q\n")
	buffer.WriteString("BT\n")
	buffer.WriteString("0 g\n")
	buffer.WriteString(fmt.Sprintf("/%s %d Tf\n", watermarkFontResKey, p.FontSize))
	buffer.WriteString(fmt.Sprintf("%s %s %s %s %s %s Tm\n",
		pdfNumber(cos), pdfNumber(sin), pdfNumber(-sin), pdfNumber(cos), pdfNumber(p.X), pdfNumber(p.Y)))
	buffer.WriteString(fmt.Sprintf("%s Tj\n", pdfString(encoded)))
	buffer.WriteString("ET\n")
	buffer.WriteString("Q\n")
	return buffer.Bytes()
}

func pdfNumber(v float64) string {
	s := strconv.FormatFloat(math.Round(v*10000)/10000, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

func pdfString(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return "(" + text + ")"
}
