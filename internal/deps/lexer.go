package deps

import "fmt"

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenInt
	tokenAssign
	tokenLBrace
	tokenRBrace
	tokenLBracket
	tokenRBracket
	tokenLParen
	tokenRParen
	tokenColon
	tokenComma
	tokenPlus
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of file"
	case tokenIdent:
		return "identifier"
	case tokenString:
		return "string"
	case tokenInt:
		return "integer"
	case tokenAssign:
		return "="
	case tokenLBrace:
		return "{"
	case tokenRBrace:
		return "}"
	case tokenLBracket:
		return "["
	case tokenRBracket:
		return "]"
	case tokenLParen:
		return "("
	case tokenRParen:
		return ")"
	case tokenColon:
		return ":"
	case tokenComma:
		return ","
	case tokenPlus:
		return "+"
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	text string
}

func (t token) String() string {
	switch t.kind {
	case tokenIdent, tokenInt:
		return fmt.Sprintf("%q", t.text)
	case tokenString:
		return fmt.Sprintf("string %q", t.text)
	default:
		return t.kind.String()
	}
}

type lexer struct {
	src     []byte
	pos     int
	line    int
	pending *token
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1}
}

// peek returns the upcoming token without consuming it.
func (l *lexer) peek() (token, error) {
	if l.pending == nil {
		tok, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.pending = &tok
	}
	return *l.pending, nil
}

// discard consumes a previously peeked token.
func (l *lexer) discard() {
	l.pending = nil
}

func (l *lexer) next() (token, error) {
	if l.pending != nil {
		tok := *l.pending
		l.pending = nil
		return tok, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokenEOF}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '\'' || c == '"':
		return l.scanString(c)
	case c >= '0' && c <= '9':
		return l.scanInt()
	case isIdentStart(c):
		return l.scanIdent()
	}

	l.pos++
	switch c {
	case '=':
		return token{kind: tokenAssign}, nil
	case '{':
		return token{kind: tokenLBrace}, nil
	case '}':
		return token{kind: tokenRBrace}, nil
	case '[':
		return token{kind: tokenLBracket}, nil
	case ']':
		return token{kind: tokenRBracket}, nil
	case '(':
		return token{kind: tokenLParen}, nil
	case ')':
		return token{kind: tokenRParen}, nil
	case ':':
		return token{kind: tokenColon}, nil
	case ',':
		return token{kind: tokenComma}, nil
	case '+':
		return token{kind: tokenPlus}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q", c)
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) scanString(quote byte) (token, error) {
	l.pos++
	var text []byte
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokenString, text: string(text)}, nil
		case '\n':
			return token{}, fmt.Errorf("string literal is missing its closing %c", quote)
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return token{}, fmt.Errorf("string literal ends in a bare backslash")
			}
			switch e := l.src[l.pos]; e {
			case 'n':
				text = append(text, '\n')
			case 't':
				text = append(text, '\t')
			case '\\', '\'', '"':
				text = append(text, e)
			default:
				return token{}, fmt.Errorf("unsupported escape \\%c", e)
			}
			l.pos++
		default:
			text = append(text, c)
			l.pos++
		}
	}
	return token{}, fmt.Errorf("string literal is missing its closing %c", quote)
}

func (l *lexer) scanInt() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		l.pos++
	}
	return token{kind: tokenInt, text: string(l.src[start:l.pos])}, nil
}

func (l *lexer) scanIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	return token{kind: tokenIdent, text: string(l.src[start:l.pos])}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
