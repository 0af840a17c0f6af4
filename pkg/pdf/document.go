package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrNotPDF is returned when the data does not start with a PDF header.
var ErrNotPDF = errors.New("not a PDF file")

// Document represents a parsed PDF document
type Document struct {
	data      []byte
	Version   string
	Trailer   Dictionary
	Root      Dictionary
	Pages     []*Page
	objects   map[int]Object
	xref      map[int]xrefEntry
	objStms   map[int]*objectStream
	resolving map[int]bool
	encrypted bool
}

// xrefEntry represents an entry in the cross-reference table
type xrefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
	// For objects stored inside an object stream
	StreamObjNum int
	Index        int
}

// objectStream caches the decoded body and member offsets of an /ObjStm.
type objectStream struct {
	data    []byte
	first   int64
	offsets []int64
}

// Page represents a PDF page. Resources, MediaBox, CropBox and Rotate
// already include values inherited from the page tree.
type Page struct {
	doc          *Document
	Dictionary   Dictionary
	Number       int
	ObjectNumber int
	MediaBox     Rectangle
	CropBox      Rectangle
	Resources    Dictionary
	Rotate       int
}

// Rectangle represents a PDF rectangle
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the rectangle width
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the rectangle height
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Open opens and parses a PDF file. The file handle is released before
// Open returns, whatever the outcome.
func Open(filename string) (*Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewReader(f)
}

// NewReader parses a document from an io.Reader
func NewReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(data)
}

// NewDocument creates a new document from PDF data
func NewDocument(data []byte) (*Document, error) {
	doc := &Document{
		data:      data,
		objects:   make(map[int]Object),
		xref:      make(map[int]xrefEntry),
		objStms:   make(map[int]*objectStream),
		resolving: make(map[int]bool),
	}

	if err := doc.parse(); err != nil {
		return nil, err
	}

	return doc, nil
}

// parse parses the PDF document
func (d *Document) parse() error {
	// Some producers put junk before the header; accept it within 1KB.
	head := d.data
	if len(head) > 1024 {
		head = head[:1024]
	}
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return ErrNotPDF
	}
	if idx > 0 {
		d.data = d.data[idx:]
	}

	end := bytes.IndexAny(d.data, "\r\n")
	if end < 0 {
		return ErrNotPDF
	}
	d.Version = strings.TrimSpace(string(d.data[5:end]))

	if err := d.loadXRef(); err != nil || d.loadRoot() != nil {
		d.xref = make(map[int]xrefEntry)
		d.objects = make(map[int]Object)
		d.Trailer = nil
		if rerr := d.rebuildXRef(); rerr != nil {
			if err == nil {
				err = rerr
			}
			return fmt.Errorf("cross-reference table: %w", err)
		}
		if err := d.loadRoot(); err != nil {
			return err
		}
	}

	if d.encrypted {
		return nil
	}
	return d.parsePages()
}

// loadRoot resolves the document catalog. Objects of encrypted files
// cannot be interpreted without the key, so for those only the trailer is
// checked.
func (d *Document) loadRoot() error {
	if d.Trailer.Get("Root") == nil {
		return fmt.Errorf("missing Root in trailer")
	}
	if d.Trailer.Get("Encrypt") != nil {
		d.encrypted = true
		return nil
	}

	rootObj, err := d.ResolveObject(d.Trailer.Get("Root"))
	if err != nil {
		return err
	}
	root, ok := rootObj.(Dictionary)
	if !ok {
		return fmt.Errorf("Root is not a dictionary")
	}
	d.Root = root
	return nil
}

// loadXRef follows startxref through all cross-reference sections
func (d *Document) loadXRef() error {
	offset, err := d.findStartXRef()
	if err != nil {
		return err
	}
	return d.parseXRef(offset, make(map[int64]bool))
}

// findStartXRef finds the startxref position
func (d *Document) findStartXRef() (int64, error) {
	searchLen := 2048
	if len(d.data) < searchLen {
		searchLen = len(d.data)
	}

	tail := d.data[len(d.data)-searchLen:]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}

	fields := bytes.Fields(tail[idx+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("invalid startxref offset")
	}
	offset, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil || offset < 0 || offset >= int64(len(d.data)) {
		return 0, fmt.Errorf("invalid startxref offset")
	}

	return offset, nil
}

// parseXRef parses the cross-reference section at offset and its /Prev chain
func (d *Document) parseXRef(offset int64, seen map[int64]bool) error {
	if seen[offset] {
		return nil
	}
	seen[offset] = true

	pos := offset
	for pos < int64(len(d.data)) && isWhitespace(d.data[pos]) {
		pos++
	}

	var trailer Dictionary
	var err error
	if bytes.HasPrefix(d.data[pos:], []byte("xref")) {
		trailer, err = d.parseXRefTable(pos)
	} else {
		trailer, err = d.parseXRefStream(pos)
	}
	if err != nil {
		return err
	}

	// Entries and keys from newer sections win over older ones.
	if d.Trailer == nil {
		d.Trailer = trailer.Clone()
	} else {
		for k, v := range trailer {
			if _, exists := d.Trailer[k]; !exists {
				d.Trailer[k] = v
			}
		}
	}

	// Hybrid-reference files keep compressed objects in a side stream.
	if stm, ok := trailer.GetInt("XRefStm"); ok {
		if err := d.parseXRef(stm, seen); err != nil {
			return err
		}
	}

	if prev, ok := trailer.GetInt("Prev"); ok {
		return d.parseXRef(prev, seen)
	}
	return nil
}

func (d *Document) addXRef(objNum int, entry xrefEntry) {
	if _, exists := d.xref[objNum]; !exists {
		d.xref[objNum] = entry
	}
}

// parseXRefTable parses a classic xref table and returns its trailer
func (d *Document) parseXRefTable(offset int64) (Dictionary, error) {
	lexer := NewLexerFromBytes(d.data)
	lexer.SeekTo(offset)
	lexer.ReadLine() // "xref"

	var trailerPos int64
	for {
		if lexer.eof() {
			return nil, fmt.Errorf("xref table at %d has no trailer", offset)
		}
		lineStart := lexer.Position()
		raw := lexer.ReadLine()
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}
		if bytes.HasPrefix(line, []byte("trailer")) {
			// The dictionary may share the keyword's line.
			trailerPos = lineStart + int64(bytes.Index(raw, []byte("trailer"))+len("trailer"))
			break
		}

		// Subsection header: start count
		parts := bytes.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed xref subsection %q", line)
		}
		start, err1 := strconv.Atoi(string(parts[0]))
		count, err2 := strconv.Atoi(string(parts[1]))
		if err1 != nil || err2 != nil || start < 0 || count < 0 {
			return nil, fmt.Errorf("malformed xref subsection %q", line)
		}

		for i := 0; i < count; i++ {
			entry := bytes.Fields(lexer.ReadLine())
			if len(entry) < 3 {
				return nil, fmt.Errorf("malformed xref entry for object %d", start+i)
			}
			entryOffset, _ := strconv.ParseInt(string(entry[0]), 10, 64)
			gen, _ := strconv.Atoi(string(entry[1]))
			d.addXRef(start+i, xrefEntry{
				Offset:     entryOffset,
				Generation: gen,
				InUse:      entry[2][0] == 'n',
			})
		}
	}

	parser := NewParserFromBytes(d.data[trailerPos:])
	trailerObj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	trailer, ok := trailerObj.(Dictionary)
	if !ok {
		return nil, fmt.Errorf("trailer is not a dictionary")
	}
	return trailer, nil
}

// parseXRefStream parses an xref stream and returns its dictionary
func (d *Document) parseXRefStream(offset int64) (Dictionary, error) {
	parser := NewParserFromBytes(d.data[offset:])
	_, _, obj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, err
	}

	stream, ok := obj.(Stream)
	if !ok {
		return nil, fmt.Errorf("xref stream expected at offset %d", offset)
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, err
	}

	wArray, ok := stream.Dictionary.GetArray("W")
	if !ok || len(wArray) != 3 {
		return nil, fmt.Errorf("invalid xref stream W array")
	}
	w := make([]int, 3)
	for i, obj := range wArray {
		n, ok := obj.(Integer)
		if !ok || n < 0 || n > 8 {
			return nil, fmt.Errorf("invalid xref stream W array")
		}
		w[i] = int(n)
	}

	var indices []int
	if indexArray, ok := stream.Dictionary.GetArray("Index"); ok {
		for _, obj := range indexArray {
			if n, ok := obj.(Integer); ok {
				indices = append(indices, int(n))
			}
		}
	} else if size, ok := stream.Dictionary.GetInt("Size"); ok {
		indices = []int{0, int(size)}
	}

	entrySize := w[0] + w[1] + w[2]
	pos := 0
	for i := 0; i+1 < len(indices); i += 2 {
		start, count := indices[i], indices[i+1]
		for j := 0; j < count && pos+entrySize <= len(data); j++ {
			entry := data[pos : pos+entrySize]
			pos += entrySize

			kind := readXRefField(entry, 0, w[0])
			if w[0] == 0 {
				kind = 1
			}
			f2 := readXRefField(entry, w[0], w[1])
			f3 := readXRefField(entry, w[0]+w[1], w[2])

			switch kind {
			case 0:
				d.addXRef(start+j, xrefEntry{})
			case 1:
				d.addXRef(start+j, xrefEntry{Offset: int64(f2), Generation: f3, InUse: true})
			case 2:
				d.addXRef(start+j, xrefEntry{StreamObjNum: f2, Index: f3, InUse: true})
			}
		}
	}

	return stream.Dictionary, nil
}

// readXRefField reads a big-endian field from an xref stream entry
func readXRefField(data []byte, offset, width int) int {
	result := 0
	for i := 0; i < width; i++ {
		result = result<<8 | int(data[offset+i])
	}
	return result
}

// rebuildXRef reconstructs the cross-reference data of a damaged file by
// scanning for object headers. The last definition of an object wins.
func (d *Document) rebuildXRef() error {
	lexer := NewLexerFromBytes(d.data)
	var catalog *Reference
	var xrefStreams []xrefEntry

	for !lexer.eof() {
		lineStart := lexer.Position()
		line := lexer.ReadLine()

		fields := bytes.Fields(line)
		if len(fields) < 3 || !bytes.HasPrefix(fields[2], []byte("obj")) {
			continue
		}
		num, err1 := strconv.Atoi(string(fields[0]))
		gen, err2 := strconv.Atoi(string(fields[1]))
		if err1 != nil || err2 != nil || num <= 0 {
			continue
		}
		offset := lineStart + int64(bytes.Index(line, fields[0]))
		d.xref[num] = xrefEntry{Offset: offset, Generation: gen, InUse: true}
	}

	for num, entry := range d.xref {
		obj, err := d.getUncompressedObject(entry.Offset)
		if err != nil {
			continue
		}
		var dict Dictionary
		switch v := obj.(type) {
		case Dictionary:
			dict = v
		case Stream:
			dict = v.Dictionary
		}
		switch t, _ := dict.GetName("Type"); t {
		case "Catalog":
			catalog = &Reference{ObjectNumber: num, GenerationNumber: entry.Generation}
		case "ObjStm":
			d.registerObjectStream(num, obj.(Stream))
		case "XRef":
			xrefStreams = append(xrefStreams, entry)
		}
	}

	if idx := bytes.LastIndex(d.data, []byte("trailer")); idx >= 0 {
		parser := NewParserFromBytes(d.data[idx+len("trailer"):])
		if obj, err := parser.ParseObject(); err == nil {
			if trailer, ok := obj.(Dictionary); ok {
				d.Trailer = trailer
			}
		}
	}
	if d.Trailer == nil {
		d.Trailer = Dictionary{}
	}

	// Files with xref streams carry their trailer keys in the stream
	// dictionary. The newest stream wins.
	sort.Slice(xrefStreams, func(i, j int) bool {
		return xrefStreams[i].Offset > xrefStreams[j].Offset
	})
	for _, entry := range xrefStreams {
		obj, err := d.getUncompressedObject(entry.Offset)
		if err != nil {
			continue
		}
		stream, ok := obj.(Stream)
		if !ok {
			continue
		}
		for _, key := range []string{"Root", "Encrypt", "Info", "ID"} {
			if d.Trailer.Get(key) == nil && stream.Dictionary.Get(key) != nil {
				d.Trailer[Name(key)] = stream.Dictionary.Get(key)
			}
		}
	}

	if d.Trailer.Get("Root") == nil {
		if catalog == nil {
			return fmt.Errorf("no document catalog found")
		}
		d.Trailer["Root"] = *catalog
	}
	return nil
}

// registerObjectStream adds the members of an object stream found while
// rebuilding, unless they are already defined as plain objects.
func (d *Document) registerObjectStream(num int, stream Stream) {
	stm, err := d.loadObjectStream(stream)
	if err != nil {
		return
	}
	d.objStms[num] = stm

	header := NewParserFromBytes(stm.data[:stm.first])
	for i := range stm.offsets {
		obj, err := header.ParseObject()
		if err != nil {
			return
		}
		header.ParseObject() // offset, already collected
		if n, ok := obj.(Integer); ok {
			d.addXRef(int(n), xrefEntry{StreamObjNum: num, Index: i, InUse: true})
		}
	}
}

// ResolveObject resolves an object, following references
func (d *Document) ResolveObject(obj Object) (Object, error) {
	ref, ok := obj.(Reference)
	if !ok {
		if obj == nil {
			return Null{}, nil
		}
		return obj, nil
	}

	return d.GetObject(ref.ObjectNumber)
}

// GetObject gets an object by number. Missing or free objects resolve to
// null, as the PDF format requires.
func (d *Document) GetObject(objNum int) (Object, error) {
	if obj, ok := d.objects[objNum]; ok {
		return obj, nil
	}

	entry, ok := d.xref[objNum]
	if !ok || !entry.InUse {
		return Null{}, nil
	}

	if d.resolving[objNum] {
		return nil, fmt.Errorf("object %d refers to itself", objNum)
	}
	d.resolving[objNum] = true
	defer delete(d.resolving, objNum)

	var obj Object
	var err error
	if entry.StreamObjNum > 0 {
		obj, err = d.getCompressedObject(entry.StreamObjNum, entry.Index)
	} else {
		obj, err = d.getUncompressedObject(entry.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", objNum, err)
	}

	d.objects[objNum] = obj
	return obj, nil
}

// getUncompressedObject reads an uncompressed object
func (d *Document) getUncompressedObject(offset int64) (Object, error) {
	if offset <= 0 || offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("offset %d out of range", offset)
	}
	parser := NewParserFromBytes(d.data[offset:])
	parser.resolveLength = d.resolveLength
	_, _, obj, err := parser.ParseIndirectObject()
	return obj, err
}

// resolveLength resolves an indirect stream length
func (d *Document) resolveLength(ref Reference) (int64, bool) {
	obj, err := d.GetObject(ref.ObjectNumber)
	if err != nil {
		return 0, false
	}
	n, ok := obj.(Integer)
	return int64(n), ok
}

// getCompressedObject reads an object from an object stream
func (d *Document) getCompressedObject(streamObjNum, index int) (Object, error) {
	stm, ok := d.objStms[streamObjNum]
	if !ok {
		streamObj, err := d.GetObject(streamObjNum)
		if err != nil {
			return nil, err
		}
		stream, ok := streamObj.(Stream)
		if !ok {
			return nil, fmt.Errorf("object stream %d is not a stream", streamObjNum)
		}
		stm, err = d.loadObjectStream(stream)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", streamObjNum, err)
		}
		d.objStms[streamObjNum] = stm
	}

	if index < 0 || index >= len(stm.offsets) {
		return nil, fmt.Errorf("object index %d out of range", index)
	}
	objOffset := stm.first + stm.offsets[index]
	if objOffset >= int64(len(stm.data)) {
		return nil, fmt.Errorf("object index %d points past stream end", index)
	}
	return NewParserFromBytes(stm.data[objOffset:]).ParseObject()
}

// loadObjectStream decodes an /ObjStm and reads its offset table
func (d *Document) loadObjectStream(stream Stream) (*objectStream, error) {
	data, err := stream.Decode()
	if err != nil {
		return nil, err
	}
	first, ok := stream.Dictionary.GetInt("First")
	if !ok || first < 0 || first > int64(len(data)) {
		return nil, fmt.Errorf("missing or invalid First")
	}
	n, ok := stream.Dictionary.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("missing or invalid N")
	}

	header := NewParserFromBytes(data[:first])
	offsets := make([]int64, 0, n)
	for i := int64(0); i < n; i++ {
		if _, err := header.ParseObject(); err != nil {
			return nil, err
		}
		off, err := header.ParseObject()
		if err != nil {
			return nil, err
		}
		o, ok := off.(Integer)
		if !ok {
			return nil, fmt.Errorf("invalid offset in object stream header")
		}
		offsets = append(offsets, int64(o))
	}
	return &objectStream{data: data, first: first, offsets: offsets}, nil
}

// parsePages parses the page tree
func (d *Document) parsePages() error {
	pagesObj, err := d.ResolveObject(d.Root.Get("Pages"))
	if err != nil {
		return err
	}
	pagesDict, ok := pagesObj.(Dictionary)
	if !ok {
		return fmt.Errorf("Pages is not a dictionary")
	}

	ref, _ := d.Root.Get("Pages").(Reference)
	return d.parsePagesNode(pagesDict, ref.ObjectNumber, inherited{}, make(map[int]bool))
}

// inherited carries the page attributes a page tree node passes to its kids
type inherited struct {
	resources Dictionary
	mediaBox  *Rectangle
	cropBox   *Rectangle
	rotate    int
}

// parsePagesNode recursively parses page tree nodes
func (d *Document) parsePagesNode(node Dictionary, objNum int, inh inherited, visited map[int]bool) error {
	if objNum > 0 {
		if visited[objNum] {
			return fmt.Errorf("page tree loop at object %d", objNum)
		}
		visited[objNum] = true
	}

	if res, err := d.ResolveObject(node.Get("Resources")); err == nil {
		if resDict, ok := res.(Dictionary); ok {
			inh.resources = resDict
		}
	}
	if r, ok := d.rectangle(node.Get("MediaBox")); ok {
		inh.mediaBox = &r
	}
	if r, ok := d.rectangle(node.Get("CropBox")); ok {
		inh.cropBox = &r
	}
	if rot, err := d.ResolveObject(node.Get("Rotate")); err == nil {
		if r, ok := rot.(Integer); ok {
			inh.rotate = int(r)
		}
	}

	nodeType, _ := node.GetName("Type")
	kidsObj, _ := d.ResolveObject(node.Get("Kids"))
	kids, hasKids := kidsObj.(Array)

	// Some producers omit /Type; decide by the presence of /Kids.
	if nodeType == "Pages" || (nodeType == "" && hasKids) {
		for _, kidRef := range kids {
			kidObj, err := d.ResolveObject(kidRef)
			if err != nil {
				return err
			}
			kidDict, ok := kidObj.(Dictionary)
			if !ok {
				continue
			}
			ref, _ := kidRef.(Reference)
			if err := d.parsePagesNode(kidDict, ref.ObjectNumber, inh, visited); err != nil {
				return err
			}
		}
		return nil
	}

	page := &Page{
		doc:          d,
		Dictionary:   node,
		Number:       len(d.Pages) + 1,
		ObjectNumber: objNum,
		Resources:    inh.resources,
		Rotate:       inh.rotate,
		MediaBox:     Rectangle{0, 0, 612, 792},
	}
	if inh.mediaBox != nil {
		page.MediaBox = *inh.mediaBox
	}
	page.CropBox = page.MediaBox
	if inh.cropBox != nil {
		page.CropBox = *inh.cropBox
	}

	d.Pages = append(d.Pages, page)
	return nil
}

// rectangle resolves a four-number array into a Rectangle
func (d *Document) rectangle(obj Object) (Rectangle, bool) {
	if obj == nil {
		return Rectangle{}, false
	}
	resolved, err := d.ResolveObject(obj)
	if err != nil {
		return Rectangle{}, false
	}
	arr, ok := resolved.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, false
	}
	return Rectangle{
		LLX: objectToFloat(arr[0]),
		LLY: objectToFloat(arr[1]),
		URX: objectToFloat(arr[2]),
		URY: objectToFloat(arr[3]),
	}, true
}

// toArray converts a Rectangle to a PDF array
func (r Rectangle) toArray() Array {
	return Array{Real(r.LLX), Real(r.LLY), Real(r.URX), Real(r.URY)}
}

// IsEncrypted reports whether the trailer carries an /Encrypt dictionary.
// Pages of encrypted documents are not parsed.
func (d *Document) IsEncrypted() bool {
	return d.encrypted
}

// NumPages returns the number of pages
func (d *Document) NumPages() int {
	return len(d.Pages)
}

// GetPage returns a page by number (1-indexed)
func (d *Document) GetPage(num int) (*Page, error) {
	if num < 1 || num > len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range", num)
	}
	return d.Pages[num-1], nil
}

// GetContents returns the page contents as decoded bytes
func (p *Page) GetContents() ([]byte, error) {
	contentsObj, err := p.doc.ResolveObject(p.Dictionary.Get("Contents"))
	if err != nil {
		return nil, err
	}

	switch contents := contentsObj.(type) {
	case Null:
		return nil, nil
	case Stream:
		return contents.Decode()
	case Array:
		var buf bytes.Buffer
		for _, ref := range contents {
			streamObj, err := p.doc.ResolveObject(ref)
			if err != nil {
				return nil, err
			}
			stream, ok := streamObj.(Stream)
			if !ok {
				continue
			}
			data, err := stream.Decode()
			if err != nil {
				return nil, err
			}
			buf.Write(data)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("invalid Contents type")
}

// Close releases the document's buffers. Pages must not be used after
// Close.
func (d *Document) Close() error {
	d.data = nil
	d.objects = nil
	d.objStms = nil
	d.xref = nil
	return nil
}
