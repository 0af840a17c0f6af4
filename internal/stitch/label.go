package stitch

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/text/encoding/charmap"
)

// Label page layout, in points on a US Letter page (612x792) with the
// origin at the top left.
const (
	labelPrefix   = "Source: "
	labelFontSize = 16
	labelX        = 72
	labelBaseline = 72 // 720pt from the bottom edge
	ruleY         = 82 // 710pt from the bottom edge
	ruleX2        = 540

	unicodeFamily = "gobold"
)

// labelDate is written as the creation date so equal names give equal bytes.
var labelDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	boldOnce sync.Once
	boldFont *truetype.Font
	boldErr  error
)

func goBold() (*truetype.Font, error) {
	boldOnce.Do(func() {
		boldFont, boldErr = truetype.Parse(gobold.TTF)
	})
	return boldFont, boldErr
}

// LabelPage renders the one-page separator document for filename: the
// text "Source: <basename>" in bold 16pt near the top of a Letter page
// with a rule beneath it.
func LabelPage(filename string) ([]byte, error) {
	text := labelPrefix + filepath.Base(filename)

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(labelDate)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.AddPage()

	if encoded, ok := encodeWinAnsi(text); ok {
		pdf.SetFont("Helvetica", "B", labelFontSize)
		text = encoded
	} else {
		font, err := goBold()
		if err != nil {
			return nil, fmt.Errorf("label font: %w", err)
		}
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", gobold.TTF)
		pdf.SetFont(unicodeFamily, "", labelFontSize)
		text = withGlyphs(font, text)
	}

	pdf.Text(labelX, labelBaseline, text)
	pdf.SetLineWidth(1)
	pdf.Line(labelX, ruleY, ruleX2, ruleY)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("label page for %s: %w", filename, err)
	}
	return buf.Bytes(), nil
}

// encodeWinAnsi converts s to Windows-1252, the encoding of the core PDF
// fonts. It fails when s has a rune outside that code page.
func encodeWinAnsi(s string) (string, bool) {
	out, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return "", false
	}
	return out, true
}

// withGlyphs replaces runes the font cannot draw with '?'.
func withGlyphs(font *truetype.Font, s string) string {
	return strings.Map(func(r rune) rune {
		if font.Index(r) == 0 {
			return '?'
		}
		return r
	}, s)
}
