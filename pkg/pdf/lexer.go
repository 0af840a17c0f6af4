package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNull
	TokenBoolean
	TokenInteger
	TokenReal
	TokenString
	TokenHexString
	TokenName
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenStreamStart
	TokenStreamEnd
	TokenObjStart
	TokenObjEnd
	TokenRef
	TokenXRef
	TokenTrailer
	TokenStartXRef
	TokenKeyword
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value interface{}
	Pos   int64
}

// Lexer performs lexical analysis on an in-memory PDF byte range.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexerFromBytes creates a new lexer from byte slice
func NewLexerFromBytes(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Position returns the current offset into the lexer's data
func (l *Lexer) Position() int64 {
	return int64(l.pos)
}

// SeekTo moves the lexer to an absolute offset
func (l *Lexer) SeekTo(pos int64) {
	switch {
	case pos < 0:
		l.pos = 0
	case pos > int64(len(l.data)):
		l.pos = len(l.data)
	default:
		l.pos = int(pos)
	}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.data) }

// skipWhitespace skips whitespace and comments
func (l *Lexer) skipWhitespace() {
	for !l.eof() {
		b := l.data[l.pos]
		switch {
		case isWhitespace(b):
			l.pos++
		case b == '%':
			for !l.eof() && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// isWhitespace checks if a byte is PDF whitespace
func isWhitespace(b byte) bool {
	return b == 0 || b == '\t' || b == '\n' || b == '\f' || b == '\r' || b == ' '
}

// isDelimiter checks if a byte is a PDF delimiter
func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' ||
		b == '[' || b == ']' || b == '{' || b == '}' ||
		b == '/' || b == '%'
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	pos := int64(l.pos)
	if l.eof() {
		return Token{Type: TokenEOF, Pos: pos}, nil
	}

	b := l.data[l.pos]
	l.pos++

	switch b {
	case '[':
		return Token{Type: TokenArrayStart, Pos: pos}, nil
	case ']':
		return Token{Type: TokenArrayEnd, Pos: pos}, nil
	case '(':
		return l.readLiteralString(pos)
	case '<':
		if !l.eof() && l.data[l.pos] == '<' {
			l.pos++
			return Token{Type: TokenDictStart, Pos: pos}, nil
		}
		return l.readHexString(pos)
	case '>':
		if !l.eof() && l.data[l.pos] == '>' {
			l.pos++
			return Token{Type: TokenDictEnd, Pos: pos}, nil
		}
		return Token{}, fmt.Errorf("unexpected '>' at position %d", pos)
	case '/':
		return l.readName(pos)
	}

	l.pos--
	if b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9') {
		return l.readNumber(pos)
	}
	if !isDelimiter(b) {
		return l.readKeyword(pos), nil
	}
	return Token{}, fmt.Errorf("unexpected character '%c' at position %d", b, pos)
}

// readLiteralString reads a literal string (...) with balanced parentheses
func (l *Lexer) readLiteralString(pos int64) (Token, error) {
	var buf bytes.Buffer
	depth := 1

	for {
		if l.eof() {
			return Token{}, fmt.Errorf("unterminated string at position %d", pos)
		}
		b := l.data[l.pos]
		l.pos++

		switch b {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: pos}, nil
			}
		case '\\':
			l.readEscape(&buf)
			continue
		}
		buf.WriteByte(b)
	}
}

// readEscape decodes one backslash escape inside a literal string
func (l *Lexer) readEscape(buf *bytes.Buffer) {
	if l.eof() {
		return
	}
	b := l.data[l.pos]
	l.pos++

	switch b {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if !l.eof() && l.data[l.pos] == '\n' {
			l.pos++
		}
	case '\n':
	default:
		if b < '0' || b > '7' {
			buf.WriteByte(b)
			return
		}
		val := int(b - '0')
		for i := 0; i < 2 && !l.eof(); i++ {
			c := l.data[l.pos]
			if c < '0' || c > '7' {
				break
			}
			val = val*8 + int(c-'0')
			l.pos++
		}
		buf.WriteByte(byte(val))
	}
}

// readHexString reads a hexadecimal string <...>
func (l *Lexer) readHexString(pos int64) (Token, error) {
	end := bytes.IndexByte(l.data[l.pos:], '>')
	if end < 0 {
		return Token{}, fmt.Errorf("unterminated hex string at position %d", pos)
	}
	decoded, err := asciiHexDecode(l.data[l.pos : l.pos+end])
	if err != nil {
		return Token{}, fmt.Errorf("invalid hex string at position %d: %w", pos, err)
	}
	l.pos += end + 1
	return Token{Type: TokenHexString, Value: decoded, Pos: pos}, nil
}

// readName reads a name object /... with #XX escapes
func (l *Lexer) readName(pos int64) (Token, error) {
	var buf bytes.Buffer

	for !l.eof() {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++

		if b == '#' && l.pos+2 <= len(l.data) {
			val, err := strconv.ParseUint(string(l.data[l.pos:l.pos+2]), 16, 8)
			if err == nil {
				buf.WriteByte(byte(val))
				l.pos += 2
				continue
			}
		}
		buf.WriteByte(b)
	}

	return Token{Type: TokenName, Value: buf.String(), Pos: pos}, nil
}

// readNumber reads a number (integer or real)
func (l *Lexer) readNumber(pos int64) (Token, error) {
	start := l.pos
	hasDecimal := false
	hasDigit := false

scan:
	for !l.eof() {
		b := l.data[l.pos]
		switch {
		case b == '+' || b == '-':
			if l.pos > start {
				break scan
			}
		case b == '.':
			if hasDecimal {
				break scan
			}
			hasDecimal = true
		case b >= '0' && b <= '9':
			hasDigit = true
		default:
			break scan
		}
		l.pos++
	}

	if !hasDigit {
		return Token{}, fmt.Errorf("invalid number at position %d", pos)
	}

	str := string(l.data[start:l.pos])
	if hasDecimal {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return Token{}, fmt.Errorf("invalid real number at position %d", pos)
		}
		return Token{Type: TokenReal, Value: val, Pos: pos}, nil
	}

	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("invalid integer at position %d", pos)
	}
	return Token{Type: TokenInteger, Value: val, Pos: pos}, nil
}

// readKeyword reads a bare keyword (true, false, null, obj, endobj, ...).
// Unknown keywords come back as TokenKeyword so callers can decide.
func (l *Lexer) readKeyword(pos int64) Token {
	start := l.pos
	for !l.eof() {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}

	keyword := string(l.data[start:l.pos])
	switch keyword {
	case "true":
		return Token{Type: TokenBoolean, Value: true, Pos: pos}
	case "false":
		return Token{Type: TokenBoolean, Value: false, Pos: pos}
	case "null":
		return Token{Type: TokenNull, Pos: pos}
	case "obj":
		return Token{Type: TokenObjStart, Pos: pos}
	case "endobj":
		return Token{Type: TokenObjEnd, Pos: pos}
	case "stream":
		return Token{Type: TokenStreamStart, Pos: pos}
	case "endstream":
		return Token{Type: TokenStreamEnd, Pos: pos}
	case "R":
		return Token{Type: TokenRef, Pos: pos}
	case "xref":
		return Token{Type: TokenXRef, Pos: pos}
	case "trailer":
		return Token{Type: TokenTrailer, Pos: pos}
	case "startxref":
		return Token{Type: TokenStartXRef, Pos: pos}
	default:
		return Token{Type: TokenKeyword, Value: keyword, Pos: pos}
	}
}

// ReadLine reads until end of line (CR, LF or CRLF)
func (l *Lexer) ReadLine() []byte {
	start := l.pos
	for !l.eof() {
		b := l.data[l.pos]
		if b == '\r' || b == '\n' {
			line := l.data[start:l.pos]
			l.pos++
			if b == '\r' && !l.eof() && l.data[l.pos] == '\n' {
				l.pos++
			}
			return line
		}
		l.pos++
	}
	return l.data[start:]
}

// ReadBytes reads n bytes, returning fewer at end of data
func (l *Lexer) ReadBytes(n int) []byte {
	end := l.pos + n
	if n < 0 || end > len(l.data) {
		end = len(l.data)
	}
	b := l.data[l.pos:end]
	l.pos = end
	return b
}

// Remaining returns the unread portion of the data
func (l *Lexer) Remaining() []byte {
	return l.data[l.pos:]
}
