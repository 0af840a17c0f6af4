package stitch

import (
	"fmt"

	"github.com/novvoo/pdfstitch/pkg/pdf"
)

// Status is the per-file result of Add.
type Status int

const (
	Processed Status = iota
	Failed
)

func (s Status) String() string {
	switch s {
	case Processed:
		return "processed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome describes what Add did with one input file. Pages counts the
// content pages appended, excluding the label page. For a failed file Err
// is a *DocumentError.
type Outcome struct {
	Path    string
	Status  Status
	Pages   int
	Labeled bool
	Err     error
}

// Options controls how documents are assembled.
type Options struct {
	// Label inserts a "Source: <name>" page before each document.
	Label bool
}

// Assembler accumulates the output page sequence and the per-file outcome
// lists. It is not safe for concurrent use; files are added one at a time
// in resolved order.
type Assembler struct {
	opts      Options
	out       *pdf.Writer
	processed []string
	failed    []string
}

// NewAssembler returns an assembler with an empty output document.
func NewAssembler(opts Options) *Assembler {
	return &Assembler{opts: opts, out: pdf.NewWriter()}
}

// Add opens path and appends its pages, preceded by a label page when
// enabled. Unreadable and encrypted documents are recorded as failed.
// Pages appended before a copy error stay in the output. Adding the same
// path twice appends its pages twice.
func (a *Assembler) Add(path string) Outcome {
	res := Outcome{Path: path}

	doc, err := pdf.Open(path)
	if err != nil {
		return a.fail(res, &DocumentError{Path: path, Err: err})
	}
	defer doc.Close()
	defer a.out.Release(doc)

	if doc.IsEncrypted() {
		return a.fail(res, &DocumentError{Path: path, Encrypted: true})
	}

	if a.opts.Label {
		if err := a.addLabel(path); err != nil {
			return a.fail(res, &DocumentError{Path: path, Err: fmt.Errorf("label page: %w", err)})
		}
		res.Labeled = true
	}

	for _, page := range doc.Pages {
		if err := a.out.AddPage(page); err != nil {
			return a.fail(res, &DocumentError{Path: path, Err: err})
		}
		res.Pages++
	}

	a.processed = append(a.processed, path)
	res.Status = Processed
	return res
}

func (a *Assembler) addLabel(path string) error {
	data, err := LabelPage(path)
	if err != nil {
		return err
	}
	label, err := pdf.NewDocument(data)
	if err != nil {
		return err
	}
	defer label.Close()
	defer a.out.Release(label)

	if label.NumPages() != 1 {
		return fmt.Errorf("expected one page, got %d", label.NumPages())
	}
	return a.out.AddPage(label.Pages[0])
}

func (a *Assembler) fail(res Outcome, err *DocumentError) Outcome {
	a.failed = append(a.failed, res.Path)
	res.Status = Failed
	res.Err = err
	return res
}

// Processed returns the paths added successfully, in order.
func (a *Assembler) Processed() []string {
	return append([]string(nil), a.processed...)
}

// Failed returns the paths that could not be added, in order.
func (a *Assembler) Failed() []string {
	return append([]string(nil), a.failed...)
}

// NumPages returns the current length of the output page sequence.
func (a *Assembler) NumPages() int {
	return a.out.NumPages()
}

// Write serializes the output document to path, replacing any existing
// file. A partially written file is left in place on failure.
func (a *Assembler) Write(path string) (int64, error) {
	n, err := a.out.Save(path)
	if err != nil {
		return n, &WriteError{Path: path, Err: err}
	}
	return n, nil
}
