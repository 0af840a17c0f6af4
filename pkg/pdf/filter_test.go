package pdf

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// TestFlateDecode tests inflating with and without a PNG predictor
func TestFlateDecode(t *testing.T) {
	plain := deflate(t, []byte("q 1 0 0 1 0 0 cm Q"))
	got, err := applyFilter(plain, "FlateDecode", Dictionary{})
	if err != nil {
		t.Fatalf("applyFilter failed: %v", err)
	}
	if string(got) != "q 1 0 0 1 0 0 cm Q" {
		t.Errorf("Unexpected output %q", got)
	}

	// Two rows of three bytes, both using the Up filter.
	rows := deflate(t, []byte{2, 1, 2, 3, 2, 1, 1, 1})
	params := Dictionary{"Predictor": Integer(12), "Columns": Integer(3)}
	got, err = applyFilter(rows, "Fl", params)
	if err != nil {
		t.Fatalf("applyFilter with predictor failed: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 2, 3, 4}) {
		t.Errorf("Unexpected predictor output %v", got)
	}
}

// TestFlateDecodeTruncated tests that a cut-off stream yields its prefix
func TestFlateDecodeTruncated(t *testing.T) {
	want := bytes.Repeat([]byte("0 0 m 100 100 l S\n"), 50)
	full := deflate(t, want)
	got, err := flateDecode(full[:len(full)-6])
	if err != nil {
		t.Fatalf("flateDecode failed: %v", err)
	}
	if !bytes.HasPrefix(want, got) {
		t.Errorf("Output %q is not a prefix of the input", got)
	}

	if _, err := flateDecode([]byte("not zlib")); err == nil {
		t.Error("Expected error for invalid zlib header")
	}
}

// TestApplyPredictorErrors tests row size mismatches
func TestApplyPredictorErrors(t *testing.T) {
	params := Dictionary{"Predictor": Integer(10), "Columns": Integer(4)}
	if _, err := applyPredictor([]byte{0, 1, 2}, params); err == nil {
		t.Error("Expected error for short row")
	}
	if _, err := applyPredictor([]byte{9, 1, 2, 3, 4}, params); err == nil {
		t.Error("Expected error for unknown filter type")
	}

	// TIFF and no predictor pass data through.
	data := []byte{1, 2, 3}
	got, err := applyPredictor(data, Dictionary{"Predictor": Integer(2)})
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("Expected passthrough, got %v, %v", got, err)
	}
}

// TestASCIIHexDecode tests ASCII hex decoding
func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		input    string
		expected []byte
	}{
		{"48656C6C6F>", []byte("Hello")},
		{"48 65 6C\n6C 6F>", []byte("Hello")},
		{"ABCD>", []byte{0xAB, 0xCD}},
		{"ABC>", []byte{0xAB, 0xC0}},
	}

	for _, tt := range tests {
		result, err := asciiHexDecode([]byte(tt.input))
		if err != nil {
			t.Errorf("asciiHexDecode(%s) failed: %v", tt.input, err)
			continue
		}
		if !bytes.Equal(result, tt.expected) {
			t.Errorf("asciiHexDecode(%s) = %v, expected %v", tt.input, result, tt.expected)
		}
	}

	if _, err := asciiHexDecode([]byte("XY>")); err == nil {
		t.Error("Expected error for non-hex digits")
	}
}

// TestASCII85Decode tests ASCII85 decoding with and without delimiters
func TestASCII85Decode(t *testing.T) {
	for _, input := range []string{"87cURD_*#TDfTZ)~>", "<~87cURD_*#TDfTZ)~>", " 87cURD_*#TDfTZ) ~>"} {
		got, err := applyFilter([]byte(input), "ASCII85Decode", Dictionary{})
		if err != nil {
			t.Errorf("%q: %v", input, err)
			continue
		}
		if string(got) != "Hello, world" {
			t.Errorf("%q: expected %q, got %q", input, "Hello, world", got)
		}
	}

	got, err := ascii85Decode([]byte("zz~>"))
	if err != nil || !bytes.Equal(got, make([]byte, 8)) {
		t.Errorf("Expected eight zero bytes, got %v, %v", got, err)
	}
}

// TestLZWDecode tests the sample sequence from the PDF reference
func TestLZWDecode(t *testing.T) {
	data := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}
	got, err := applyFilter(data, "LZWDecode", Dictionary{})
	if err != nil {
		t.Fatalf("LZW decode failed: %v", err)
	}
	if string(got) != "-----A---B" {
		t.Errorf("Expected %q, got %q", "-----A---B", got)
	}
}

// TestRunLengthDecode tests literal and repeated runs
func TestRunLengthDecode(t *testing.T) {
	result, err := runLengthDecode([]byte{2, 'A', 'B', 'C', 255, 'z', 128})
	if err != nil {
		t.Fatalf("runLengthDecode failed: %v", err)
	}
	if string(result) != "ABCzz" {
		t.Errorf("Expected 'ABCzz', got '%s'", result)
	}

	for _, bad := range [][]byte{{5, 'A'}, {200}} {
		if _, err := runLengthDecode(bad); err == nil {
			t.Errorf("Expected error for %v", bad)
		}
	}
}

// TestUnsupportedFilter tests that unknown filters are reported
func TestUnsupportedFilter(t *testing.T) {
	if _, err := applyFilter([]byte("x"), "DCTDecode", Dictionary{}); err == nil {
		t.Error("Expected error for unsupported filter")
	}
}
