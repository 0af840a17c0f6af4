package pdf

import (
	"testing"
)

// TestObjectTypes tests the Type and String of each scalar object
func TestObjectTypes(t *testing.T) {
	tests := []struct {
		obj  Object
		typ  ObjectType
		text string
	}{
		{Null{}, ObjNull, "null"},
		{Boolean(true), ObjBoolean, "true"},
		{Boolean(false), ObjBoolean, "false"},
		{Integer(42), ObjInteger, "42"},
		{Integer(-7), ObjInteger, "-7"},
		{Real(3.5), ObjReal, "3.5"},
		{Real(612), ObjReal, "612"},
		{Name("Test"), ObjName, "/Test"},
		{Name("A B#"), ObjName, "/A#20B#23"},
		{String{Value: []byte("Hello")}, ObjString, "(Hello)"},
		{String{Value: []byte("a(b)\\c\n")}, ObjString, `(a\(b\)\\c\n)`},
		{String{Value: []byte{0xAB, 0xCD}, IsHex: true}, ObjString, "<ABCD>"},
		{Reference{ObjectNumber: 1}, ObjReference, "1 0 R"},
		{Array{Integer(1), Name("N")}, ObjArray, "[1 /N]"},
	}

	for _, tt := range tests {
		if tt.obj.Type() != tt.typ {
			t.Errorf("%#v: expected type %d, got %d", tt.obj, tt.typ, tt.obj.Type())
		}
		if got := tt.obj.String(); got != tt.text {
			t.Errorf("%#v: expected %q, got %q", tt.obj, tt.text, got)
		}
	}
}

// TestDictionaryString tests that keys are written in sorted order
func TestDictionaryString(t *testing.T) {
	dict := Dictionary{
		"Type":  Name("Page"),
		"Count": Integer(2),
		"Kids":  Array{Reference{ObjectNumber: 3}},
	}
	want := "<</Count 2/Kids [3 0 R]/Type /Page>>"
	if got := dict.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	// The serialized form must parse back to the same entries.
	obj, err := NewParserFromBytes([]byte(dict.String())).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}
	parsed := obj.(Dictionary)
	if n, _ := parsed.GetInt("Count"); n != 2 {
		t.Errorf("Expected Count 2, got %d", n)
	}
	if kids, _ := parsed.GetArray("Kids"); len(kids) != 1 {
		t.Errorf("Expected one kid, got %v", kids)
	}
}

// TestDictionary tests Dictionary accessors
func TestDictionary(t *testing.T) {
	dict := Dictionary{
		"Type":  Name("Test"),
		"Value": Integer(42),
		"Width": Real(8.5),
		"Array": Array{Integer(1), Integer(2), Integer(3)},
		"Dict":  Dictionary{"Inner": Integer(1)},
	}

	if dict.Type() != ObjDictionary {
		t.Error("Expected ObjDictionary type")
	}
	if name, ok := dict.GetName("Type"); !ok || name != "Test" {
		t.Error("Expected GetName to return 'Test'")
	}
	if v, ok := dict.GetInt("Value"); !ok || v != 42 {
		t.Error("Expected GetInt to return 42")
	}
	if v, ok := dict.GetInt("Width"); !ok || v != 8 {
		t.Errorf("Expected GetInt to truncate reals, got %d", v)
	}
	if _, ok := dict.GetInt("Type"); ok {
		t.Error("GetInt on a name should fail")
	}
	if arr, ok := dict.GetArray("Array"); !ok || len(arr) != 3 {
		t.Error("Expected GetArray to return three elements")
	}
	if d, ok := dict.GetDict("Dict"); !ok || d.Get("Inner") != Integer(1) {
		t.Error("Expected GetDict to return the inner dictionary")
	}
	if dict.Get("NonExistent") != nil {
		t.Error("Expected nil for non-existent key")
	}

	clone := dict.Clone()
	clone["Value"] = Integer(7)
	if v, _ := dict.GetInt("Value"); v != 42 {
		t.Error("Clone should not share the top-level map")
	}
}

// TestStreamDecode tests Stream.Decode with and without filters
func TestStreamDecode(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		want   string
	}{
		{
			"plain",
			Stream{Dictionary: Dictionary{"Length": Integer(5)}, Data: []byte("Hello")},
			"Hello",
		},
		{
			"hex",
			Stream{Dictionary: Dictionary{"Filter": Name("ASCIIHexDecode")}, Data: []byte("48656C6C6F>")},
			"Hello",
		},
		{
			"chained",
			Stream{
				Dictionary: Dictionary{"Filter": Array{Name("AHx"), Name("RL")}},
				Data:       []byte("02414243FE5880>"),
			},
			"ABCXXX",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := tt.stream.Decode()
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if string(decoded) != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, decoded)
			}
		})
	}

	bad := Stream{Dictionary: Dictionary{"Filter": Name("JBIG2Decode")}, Data: []byte("x")}
	if _, err := bad.Decode(); err == nil {
		t.Error("Expected error for unsupported filter")
	}
}

// TestDecodeParams tests one parameter dictionary per filter
func TestDecodeParams(t *testing.T) {
	single := Dictionary{"DecodeParms": Dictionary{"Predictor": Integer(12)}}
	params := decodeParams(single, 1)
	if p, _ := params[0].GetInt("Predictor"); p != 12 {
		t.Errorf("Expected predictor 12, got %d", p)
	}

	multi := Dictionary{"DecodeParms": Array{Null{}, Dictionary{"Columns": Integer(4)}}}
	params = decodeParams(multi, 2)
	if len(params[0]) != 0 {
		t.Errorf("Expected empty params for first filter, got %v", params[0])
	}
	if c, _ := params[1].GetInt("Columns"); c != 4 {
		t.Errorf("Expected columns 4, got %d", c)
	}
}

// TestObjectToFloat tests object to float conversion
func TestObjectToFloat(t *testing.T) {
	tests := []struct {
		obj      Object
		expected float64
	}{
		{Integer(42), 42.0},
		{Real(3.14), 3.14},
		{Name("test"), 0.0},
		{Null{}, 0.0},
	}

	for _, tt := range tests {
		if result := objectToFloat(tt.obj); result != tt.expected {
			t.Errorf("Expected %f, got %f", tt.expected, result)
		}
	}
}
