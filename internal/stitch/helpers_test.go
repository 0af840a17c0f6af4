package stitch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/novvoo/pdfstitch/pkg/pdf"
)

// writeSample creates dir/name with the given number of pages, each
// showing "<stem> page <n>".
func writeSample(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	return writeGenerated(t, dir, name, pages, false)
}

// writeEncrypted is writeSample with the standard security handler on.
func writeEncrypted(t *testing.T, dir, name string, pages int) string {
	t.Helper()
	return writeGenerated(t, dir, name, pages, true)
}

func writeGenerated(t *testing.T, dir, name string, pages int, encrypt bool) string {
	t.Helper()
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	doc := gofpdf.New("P", "pt", "Letter", "")
	if encrypt {
		doc.SetProtection(gofpdf.CnProtectPrint, "user", "owner")
	}
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Text(72, 100, fmt.Sprintf("%s page %d", stem, i))
	}

	path := filepath.Join(dir, name)
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeRaw creates dir/name from a hand-built object list; object n+1 is
// bodies[n] and object 1 is the catalog.
func writeRaw(t *testing.T, dir, name string, bodies ...string) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(bodies))
	for i, body := range bodies {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(bodies)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(bodies)+1, xref)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// touch creates an empty file
func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

// pageTexts opens a PDF and returns each page's decoded content stream.
func pageTexts(t *testing.T, path string) []string {
	t.Helper()
	doc, err := pdf.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer doc.Close()

	texts := make([]string, 0, doc.NumPages())
	for _, p := range doc.Pages {
		content, err := p.GetContents()
		if err != nil {
			t.Fatalf("page %d contents: %v", p.Number, err)
		}
		texts = append(texts, string(content))
	}
	return texts
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
