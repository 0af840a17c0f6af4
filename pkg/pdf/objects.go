// Package pdf reads PDF documents, copies their pages and writes merged
// output documents.
package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ObjectType represents the type of a PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBoolean
	ObjInteger
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDictionary
	ObjStream
	ObjReference
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Boolean represents a PDF boolean object
type Boolean bool

func (b Boolean) Type() ObjectType { return ObjBoolean }
func (b Boolean) String() string   { return strconv.FormatBool(bool(b)) }

// Integer represents a PDF integer object
type Integer int64

func (i Integer) Type() ObjectType { return ObjInteger }
func (i Integer) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number object
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a PDF string object. IsHex records the source notation
// and is kept when the string is written back out.
type String struct {
	Value []byte
	IsHex bool
}

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%X>", s.Value)
	}
	return "(" + escapeLiteral(s.Value) + ")"
}

// Name represents a PDF name object
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + escapeName(string(n)) }

// Array represents a PDF array object
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, 0, len(a))
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dictionary represents a PDF dictionary object
type Dictionary map[Name]Object

func (d Dictionary) Type() ObjectType { return ObjDictionary }
func (d Dictionary) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for _, k := range d.sortedKeys() {
		sb.WriteString(k.String())
		sb.WriteByte(' ')
		sb.WriteString(d[k].String())
	}
	sb.WriteString(">>")
	return sb.String()
}

// Get returns the raw value stored under key, or nil.
func (d Dictionary) Get(key string) Object {
	return d[Name(key)]
}

// GetName returns the name value for a key
func (d Dictionary) GetName(key string) (Name, bool) {
	n, ok := d.Get(key).(Name)
	return n, ok
}

// GetInt returns the integer value for a key
func (d Dictionary) GetInt(key string) (int64, bool) {
	switch v := d.Get(key).(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// GetArray returns the array value for a key
func (d Dictionary) GetArray(key string) (Array, bool) {
	a, ok := d.Get(key).(Array)
	return a, ok
}

// GetDict returns the dictionary value for a key
func (d Dictionary) GetDict(key string) (Dictionary, bool) {
	dict, ok := d.Get(key).(Dictionary)
	return dict, ok
}

// Clone returns a shallow copy of the dictionary.
func (d Dictionary) Clone() Dictionary {
	c := make(Dictionary, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// sortedKeys orders keys so serialized output is stable.
func (d Dictionary) sortedKeys() []Name {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Stream represents a PDF stream object. Data holds the raw, still
// encoded bytes exactly as stored in the file.
type Stream struct {
	Dictionary Dictionary
	Data       []byte
}

func (s Stream) Type() ObjectType { return ObjStream }
func (s Stream) String() string {
	return s.Dictionary.String() + " stream...endstream"
}

// Decode decodes the stream data based on filters
func (s Stream) Decode() ([]byte, error) {
	data := s.Data

	var filters []Name
	switch f := s.Dictionary.Get("Filter").(type) {
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			if n, ok := item.(Name); ok {
				filters = append(filters, n)
			}
		}
	}

	params := decodeParams(s.Dictionary, len(filters))
	for i, filter := range filters {
		var err error
		data, err = applyFilter(data, filter, params[i])
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", filter, err)
		}
	}

	return data, nil
}

// decodeParams returns one /DecodeParms dictionary per filter; missing
// entries are empty dictionaries.
func decodeParams(dict Dictionary, n int) []Dictionary {
	params := make([]Dictionary, n)
	switch p := dict.Get("DecodeParms").(type) {
	case Dictionary:
		if n > 0 {
			params[0] = p
		}
	case Array:
		for i := 0; i < n && i < len(p); i++ {
			if d, ok := p[i].(Dictionary); ok {
				params[i] = d
			}
		}
	}
	for i := range params {
		if params[i] == nil {
			params[i] = Dictionary{}
		}
	}
	return params
}

// Reference represents a PDF indirect object reference
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

func (r Reference) Type() ObjectType { return ObjReference }
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}

// escapeLiteral escapes the bytes of a literal string body.
func escapeLiteral(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\r':
			sb.WriteString(`\r`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// escapeName writes delimiters, whitespace and non-printing bytes as #XX.
func escapeName(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '!' || c > '~' || c == '#' || isDelimiter(c) {
			fmt.Fprintf(&sb, "#%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// objectToFloat converts a PDF number to float64
func objectToFloat(obj Object) float64 {
	switch v := obj.(type) {
	case Integer:
		return float64(v)
	case Real:
		return float64(v)
	}
	return 0
}
