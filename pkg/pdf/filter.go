package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// applyFilter applies a single filter to decode data
func applyFilter(data []byte, filter Name, params Dictionary) ([]byte, error) {
	switch filter {
	case "FlateDecode", "Fl":
		decoded, err := flateDecode(data)
		if err != nil {
			return nil, err
		}
		return applyPredictor(decoded, params)
	case "LZWDecode", "LZW":
		earlyChange := int64(1)
		if ec, ok := params.GetInt("EarlyChange"); ok {
			earlyChange = ec
		}
		decoded, err := lzwDecode(data, earlyChange == 1)
		if err != nil {
			return nil, err
		}
		return applyPredictor(decoded, params)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	case "RunLengthDecode", "RL":
		return runLengthDecode(data)
	default:
		return nil, fmt.Errorf("unsupported filter: %s", filter)
	}
}

// flateDecode inflates zlib data. Truncated streams return what could be
// inflated before the damage, which is common in real-world files.
func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	decoded, err := io.ReadAll(r)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return decoded, nil
}

// applyPredictor undoes PNG row predictors (Predictor >= 10). TIFF
// predictor 2 is passed through unchanged.
func applyPredictor(data []byte, params Dictionary) ([]byte, error) {
	predictor, _ := params.GetInt("Predictor")
	if predictor < 10 {
		return data, nil
	}

	columns, ok := params.GetInt("Columns")
	if !ok {
		columns = 1
	}
	colors, ok := params.GetInt("Colors")
	if !ok {
		colors = 1
	}
	bpc, ok := params.GetInt("BitsPerComponent")
	if !ok {
		bpc = 8
	}

	bpp := int((colors*bpc + 7) / 8)
	rowLen := int((columns*colors*bpc + 7) / 8)
	stride := rowLen + 1
	if rowLen <= 0 || len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor: %d bytes is not a multiple of row size %d", len(data), stride)
	}

	rows := len(data) / stride
	out := make([]byte, rows*rowLen)
	prev := make([]byte, rowLen)

	for row := 0; row < rows; row++ {
		src := data[row*stride+1 : (row+1)*stride]
		dst := out[row*rowLen : (row+1)*rowLen]
		ft := data[row*stride]

		for i := 0; i < rowLen; i++ {
			var left, upLeft byte
			if i >= bpp {
				left = dst[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch ft {
			case 0:
				dst[i] = src[i]
			case 1:
				dst[i] = src[i] + left
			case 2:
				dst[i] = src[i] + up
			case 3:
				dst[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				dst[i] = src[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("predictor: unknown PNG filter type %d", ft)
			}
		}
		copy(prev, dst)
	}

	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// asciiHexDecode decodes ASCII hex encoded data up to the '>' marker
func asciiHexDecode(data []byte) ([]byte, error) {
	digits := make([]byte, 0, len(data))
	for _, b := range data {
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		digits = append(digits, b)
	}
	if len(digits)%2 != 0 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, err
	}
	return out, nil
}

// ascii85Decode decodes ASCII85 data up to the "~>" marker
func ascii85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))
	if i := bytes.Index(data, []byte("~>")); i >= 0 {
		data = data[:i]
	}
	out := make([]byte, 4*len(data)+4)
	n, _, err := ascii85.Decode(out, data, true)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// lzwDecode decodes PDF flavoured LZW (MSB first, optional early change)
func lzwDecode(data []byte, earlyChange bool) ([]byte, error) {
	const (
		clearCode = 256
		eodCode   = 257
	)

	dict := make([][]byte, 258, 4096)
	for i := 0; i < 256; i++ {
		dict[i] = []byte{byte(i)}
	}

	var out []byte
	var prev []byte
	codeSize := 9
	bitPos := 0

	for bitPos+codeSize <= len(data)*8 {
		code := 0
		for i := 0; i < codeSize; i++ {
			bit := bitPos + i
			if data[bit/8]&(1<<(7-bit%8)) != 0 {
				code |= 1 << (codeSize - 1 - i)
			}
		}
		bitPos += codeSize

		switch {
		case code == eodCode:
			return out, nil
		case code == clearCode:
			dict = dict[:258]
			codeSize = 9
			prev = nil
			continue
		}

		var entry []byte
		switch {
		case code < len(dict):
			entry = dict[code]
		case code == len(dict) && prev != nil:
			entry = append(append([]byte{}, prev...), prev[0])
		default:
			return nil, fmt.Errorf("invalid LZW code: %d", code)
		}
		out = append(out, entry...)

		if prev != nil && len(dict) < 4096 {
			next := append(append([]byte{}, prev...), entry[0])
			dict = append(dict, next)
		}
		prev = entry

		limit := len(dict)
		if earlyChange {
			limit++
		}
		if limit >= 1<<codeSize && codeSize < 12 {
			codeSize++
		}
	}

	return out, nil
}

// runLengthDecode decodes run-length encoded data
func runLengthDecode(data []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			if i+n+1 > len(data) {
				return nil, fmt.Errorf("unexpected end of data")
			}
			out = append(out, data[i:i+n+1]...)
			i += n + 1
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("unexpected end of data")
			}
			out = append(out, bytes.Repeat([]byte{data[i]}, 257-n)...)
			i++
		}
	}
	return out, nil
}
