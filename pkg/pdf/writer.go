package pdf

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// DefaultProducer is written to the /Info dictionary of output documents.
const DefaultProducer = "pdfstitch"

// Writer accumulates copied pages and serializes them as a new document.
// Object 1 is the catalog and object 2 the page tree root; copied objects
// are numbered from 3 in the order they are first reached.
type Writer struct {
	Producer string

	objects []Object // indexed by object number; nil slots are written as null
	pages   []Reference
	isPage  map[int]bool
	copies  map[*Document]map[int]int
}

// NewWriter creates an empty writer
func NewWriter() *Writer {
	return &Writer{
		Producer: DefaultProducer,
		objects:  make([]Object, 3),
		isPage:   make(map[int]bool),
		copies:   make(map[*Document]map[int]int),
	}
}

// NumPages returns the number of pages added so far
func (w *Writer) NumPages() int {
	return len(w.pages)
}

func (w *Writer) alloc() int {
	w.objects = append(w.objects, nil)
	return len(w.objects) - 1
}

func (w *Writer) numbering(doc *Document) map[int]int {
	m, ok := w.copies[doc]
	if !ok {
		m = make(map[int]int)
		w.copies[doc] = m
	}
	return m
}

// AddPage deep-copies a page and everything it references into the
// writer and appends it to the output page sequence. Inherited page
// attributes are made explicit on the copy. On error the page is not
// appended; pages added earlier are unaffected.
func (w *Writer) AddPage(p *Page) error {
	m := w.numbering(p.doc)

	num, ok := m[p.ObjectNumber]
	if !ok || p.ObjectNumber == 0 || w.isPage[num] {
		num = w.alloc()
		if p.ObjectNumber > 0 && !ok {
			m[p.ObjectNumber] = num
		}
	}

	dict := make(Dictionary, len(p.Dictionary)+4)
	for k, v := range p.Dictionary {
		switch k {
		case "Parent", "Resources", "MediaBox", "CropBox", "Rotate":
			continue
		}
		c, err := w.copyObject(p.doc, v, m)
		if err != nil {
			return fmt.Errorf("page %d: %s: %w", p.Number, k, err)
		}
		dict[k] = c
	}

	resources := Dictionary{}
	if p.Resources != nil {
		c, err := w.copyObject(p.doc, p.Resources, m)
		if err != nil {
			return fmt.Errorf("page %d: Resources: %w", p.Number, err)
		}
		resources = c.(Dictionary)
	}

	dict["Type"] = Name("Page")
	dict["Parent"] = Reference{ObjectNumber: 2}
	dict["Resources"] = resources
	dict["MediaBox"] = p.MediaBox.toArray()
	if p.CropBox != p.MediaBox {
		dict["CropBox"] = p.CropBox.toArray()
	}
	if p.Rotate != 0 {
		dict["Rotate"] = Integer(p.Rotate)
	}

	w.objects[num] = dict
	w.isPage[num] = true
	w.pages = append(w.pages, Reference{ObjectNumber: num})
	return nil
}

// Release drops the bookkeeping for a source document once all wanted
// pages have been copied. References to pages that were never added stay
// null in the output.
func (w *Writer) Release(doc *Document) {
	delete(w.copies, doc)
}

// copyObject copies obj from doc, translating references to the writer's
// numbering. m is doc's source-to-output object number mapping.
func (w *Writer) copyObject(doc *Document, obj Object, m map[int]int) (Object, error) {
	switch v := obj.(type) {
	case Reference:
		return w.copyReference(doc, v, m)

	case Dictionary:
		c := make(Dictionary, len(v))
		for k, item := range v {
			ci, err := w.copyObject(doc, item, m)
			if err != nil {
				return nil, err
			}
			c[k] = ci
		}
		return c, nil

	case Array:
		c := make(Array, len(v))
		for i, item := range v {
			ci, err := w.copyObject(doc, item, m)
			if err != nil {
				return nil, err
			}
			c[i] = ci
		}
		return c, nil

	case Stream:
		// Length is recomputed on write; an indirect one would be orphaned.
		src := v.Dictionary.Clone()
		delete(src, "Length")
		dict, err := w.copyObject(doc, src, m)
		if err != nil {
			return nil, err
		}
		return Stream{
			Dictionary: dict.(Dictionary),
			Data:       append([]byte(nil), v.Data...),
		}, nil

	case String:
		return String{Value: append([]byte(nil), v.Value...), IsHex: v.IsHex}, nil

	case nil:
		return Null{}, nil
	}

	return obj, nil
}

// copyReference copies the target of ref once and returns a reference
// to the copy. Page objects are not followed: they get a reserved number
// that AddPage fills if that page is added later.
func (w *Writer) copyReference(doc *Document, ref Reference, m map[int]int) (Object, error) {
	if num, ok := m[ref.ObjectNumber]; ok {
		return Reference{ObjectNumber: num}, nil
	}

	target, err := doc.GetObject(ref.ObjectNumber)
	if err != nil {
		return nil, err
	}

	if dict, ok := target.(Dictionary); ok {
		switch t, _ := dict.GetName("Type"); t {
		case "Page":
			num := w.alloc()
			m[ref.ObjectNumber] = num
			return Reference{ObjectNumber: num}, nil
		case "Pages":
			return Null{}, nil
		}
	}
	if _, ok := target.(Null); ok {
		return Null{}, nil
	}

	// Register before descending so reference cycles terminate.
	num := w.alloc()
	m[ref.ObjectNumber] = num

	c, err := w.copyObject(doc, target, m)
	if err != nil {
		return nil, err
	}
	w.objects[num] = c
	return Reference{ObjectNumber: num}, nil
}

// countingWriter tracks the byte offset needed for xref entries
type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// WriteTo serializes the document: header, catalog, page tree, copied
// objects, info dictionary, xref table and trailer.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	kids := make(Array, len(w.pages))
	for i, ref := range w.pages {
		kids[i] = ref
	}
	w.objects[1] = Dictionary{"Type": Name("Catalog"), "Pages": Reference{ObjectNumber: 2}}
	w.objects[2] = Dictionary{"Type": Name("Pages"), "Kids": kids, "Count": Integer(len(w.pages))}

	objects := append(w.objects[:len(w.objects):len(w.objects)],
		Dictionary{"Producer": String{Value: []byte(w.Producer)}})
	infoNum := len(objects) - 1

	cw := &countingWriter{w: bufio.NewWriter(out)}
	io.WriteString(cw, "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int64, len(objects))
	for num := 1; num < len(objects); num++ {
		offsets[num] = cw.n
		if err := writeIndirect(cw, num, objects[num]); err != nil {
			return cw.n, err
		}
	}

	xrefOffset := cw.n
	fmt.Fprintf(cw, "xref\n0 %d\n", len(objects))
	io.WriteString(cw, "0000000000 65535 f \n")
	for num := 1; num < len(objects); num++ {
		fmt.Fprintf(cw, "%010d 00000 n \n", offsets[num])
	}

	id := uuid.New()
	fileID := String{Value: id[:], IsHex: true}
	trailer := Dictionary{
		"Size": Integer(len(objects)),
		"Root": Reference{ObjectNumber: 1},
		"Info": Reference{ObjectNumber: infoNum},
		"ID":   Array{fileID, fileID},
	}
	fmt.Fprintf(cw, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xrefOffset)

	if err := cw.w.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// writeIndirect writes "num 0 obj ... endobj"
func writeIndirect(w io.Writer, num int, obj Object) error {
	var err error
	switch v := obj.(type) {
	case nil:
		_, err = fmt.Fprintf(w, "%d 0 obj\nnull\nendobj\n", num)
	case Stream:
		dict := v.Dictionary.Clone()
		dict["Length"] = Integer(len(v.Data))
		if _, err = fmt.Fprintf(w, "%d 0 obj\n%s\nstream\n", num, dict); err != nil {
			return err
		}
		if _, err = w.Write(v.Data); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\nendstream\nendobj\n")
	default:
		_, err = fmt.Fprintf(w, "%d 0 obj\n%s\nendobj\n", num, v)
	}
	return err
}

// Save writes the document to filename, replacing any existing file
func (w *Writer) Save(filename string) (int64, error) {
	f, err := os.Create(filename)
	if err != nil {
		return 0, err
	}

	n, err := w.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
