package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// LengthResolver looks up the value of an indirect stream /Length.
type LengthResolver func(ref Reference) (int64, bool)

// Parser parses PDF objects from tokens
type Parser struct {
	lexer  *Lexer
	tokens []Token

	// Resolves "/Length n 0 R"; when nil or unresolvable the stream is
	// delimited by its endstream keyword instead.
	resolveLength LengthResolver
}

// NewParser creates a new parser for the given lexer
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// NewParserFromBytes creates a new parser from byte slice
func NewParserFromBytes(data []byte) *Parser {
	return NewParser(NewLexerFromBytes(data))
}

// nextToken consumes the next token, draining the lookahead buffer first
func (p *Parser) nextToken() (Token, error) {
	if len(p.tokens) > 0 {
		tok := p.tokens[0]
		p.tokens = p.tokens[1:]
		return tok, nil
	}
	return p.lexer.NextToken()
}

// peekTokenN peeks at the nth token ahead (0-indexed)
func (p *Parser) peekTokenN(n int) (Token, error) {
	for len(p.tokens) <= n {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		p.tokens = append(p.tokens, tok)
	}
	return p.tokens[n], nil
}

// ParseObject parses a single PDF object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenNull:
		return Null{}, nil

	case TokenBoolean:
		return Boolean(tok.Value.(bool)), nil

	case TokenInteger:
		// "num gen R" is a reference
		next1, err := p.peekTokenN(0)
		if err == nil && next1.Type == TokenInteger {
			next2, err := p.peekTokenN(1)
			if err == nil && next2.Type == TokenRef {
				p.tokens = p.tokens[2:]
				return Reference{
					ObjectNumber:     int(tok.Value.(int64)),
					GenerationNumber: int(next1.Value.(int64)),
				}, nil
			}
		}
		return Integer(tok.Value.(int64)), nil

	case TokenReal:
		return Real(tok.Value.(float64)), nil

	case TokenString:
		return String{Value: tok.Value.([]byte)}, nil

	case TokenHexString:
		return String{Value: tok.Value.([]byte), IsHex: true}, nil

	case TokenName:
		return Name(tok.Value.(string)), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDictionary()

	default:
		return nil, fmt.Errorf("unexpected token type %d at position %d", tok.Type, tok.Pos)
	}
}

// parseArray parses a PDF array [...]
func (p *Parser) parseArray() (Array, error) {
	arr := Array{}
	for {
		tok, err := p.peekTokenN(0)
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			p.tokens = p.tokens[1:]
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated array at position %d", tok.Pos)
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDictionary parses a PDF dictionary <<...>>
func (p *Parser) parseDictionary() (Dictionary, error) {
	dict := make(Dictionary)
	for {
		keyTok, err := p.nextToken()
		if err != nil {
			return nil, err
		}
		switch keyTok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenName:
		default:
			return nil, fmt.Errorf("expected name as dictionary key at position %d", keyTok.Pos)
		}

		// A key directly followed by >> has no value; treat it as null.
		if next, err := p.peekTokenN(0); err == nil && next.Type == TokenDictEnd {
			continue
		}

		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		if _, isNull := value.(Null); !isNull {
			dict[Name(keyTok.Value.(string))] = value
		}
	}
}

// ParseIndirectObject parses an indirect object definition (num gen obj ... endobj)
func (p *Parser) ParseIndirectObject() (int, int, Object, error) {
	numTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if numTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected object number at position %d", numTok.Pos)
	}

	genTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if genTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected generation number at position %d", genTok.Pos)
	}

	objTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if objTok.Type != TokenObjStart {
		return 0, 0, nil, fmt.Errorf("expected 'obj' keyword at position %d", objTok.Pos)
	}

	obj, err := p.ParseObject()
	if err != nil {
		return 0, 0, nil, err
	}

	next, err := p.peekTokenN(0)
	if err == nil && next.Type == TokenStreamStart {
		dict, ok := obj.(Dictionary)
		if !ok {
			return 0, 0, nil, fmt.Errorf("stream must have dictionary at position %d", next.Pos)
		}
		p.tokens = p.tokens[:0]

		data, err := p.readStreamData(dict)
		if err != nil {
			return 0, 0, nil, err
		}
		obj = Stream{Dictionary: dict, Data: data}
	}

	// A missing endobj is tolerated; the object itself is complete.
	if end, err := p.peekTokenN(0); err == nil && end.Type == TokenObjEnd {
		p.tokens = p.tokens[1:]
	}

	return int(numTok.Value.(int64)), int(genTok.Value.(int64)), obj, nil
}

// readStreamData reads raw stream bytes following the 'stream' keyword
// and consumes the matching 'endstream'.
func (p *Parser) readStreamData(dict Dictionary) ([]byte, error) {
	l := p.lexer

	// The keyword is followed by CRLF or LF; a lone CR is tolerated.
	rest := l.Remaining()
	switch {
	case bytes.HasPrefix(rest, []byte("\r\n")):
		l.SeekTo(l.Position() + 2)
	case len(rest) > 0 && (rest[0] == '\n' || rest[0] == '\r'):
		l.SeekTo(l.Position() + 1)
	}
	start := l.Position()

	length := int64(-1)
	switch v := dict.Get("Length").(type) {
	case Integer:
		length = int64(v)
	case Reference:
		if p.resolveLength != nil {
			if n, ok := p.resolveLength(v); ok {
				length = n
			}
		}
	}

	if length >= 0 && length <= int64(len(l.Remaining())) {
		data := l.ReadBytes(int(length))
		if tok, err := p.lexer.NextToken(); err == nil && tok.Type == TokenStreamEnd {
			return data, nil
		}
		l.SeekTo(start)
	}

	// Length missing or wrong: scan for the endstream keyword.
	rest = l.Remaining()
	idx := bytes.Index(rest, []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("stream at position %d has no endstream", start)
	}
	data := bytes.TrimRight(rest[:idx], "\r\n")
	l.SeekTo(start + int64(idx) + int64(len("endstream")))
	return data, nil
}
