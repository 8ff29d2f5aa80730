package lang

import (
	"fmt"
	"strconv"
)

// lexer scans a source string into tokens. Columns count bytes, which
// is exact for the ASCII operator set the language uses.
type lexer struct {
	src   string
	start int
	cur   int
	line  int
	col   int // 1-based column of src[cur]

	tokLine int
	tokCol  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *lexer) peek() (byte, bool) {
	if l.atEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *lexer) peekNext() (byte, bool) {
	if l.cur+1 >= len(l.src) {
		return 0, false
	}
	return l.src[l.cur+1], true
}

func (l *lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *lexer) errf(format string, args ...any) *Error {
	return &Error{Phase: "lex", Line: l.tokLine, Col: l.tokCol, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) token(tt TokenType, lit any) Token {
	return Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Line:    l.tokLine,
		Col:     l.tokCol,
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}
func isAlphaNum(b byte) bool { return isAlpha(b) || isDigit(b) }

func (l *lexer) skipBlanksAndComments() {
	for !l.atEnd() {
		ch, _ := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '#':
			for !l.atEnd() {
				if b, _ := l.peek(); b == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) scanString() (Token, error) {
	l.advance() // opening quote
	var out []byte
	for !l.atEnd() {
		ch := l.advance()
		if ch == '"' {
			return l.token(STRING, string(out)), nil
		}
		if ch == '\\' {
			if l.atEnd() {
				return Token{}, l.errf("unfinished escape sequence")
			}
			esc := l.advance()
			switch esc {
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				return Token{}, l.errf("invalid escape sequence \\%c", esc)
			}
			continue
		}
		out = append(out, ch)
	}
	return Token{}, l.errf("string was not terminated")
}

func (l *lexer) scanNumber() (Token, error) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}

	isFloat := false
	if b, ok := l.peek(); ok && b == '.' {
		// A dot starts a fraction only when digits follow; otherwise it
		// is a method call like 2.abs().
		if b2, ok2 := l.peekNext(); ok2 && isDigit(b2) {
			isFloat = true
			l.advance()
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}
	if b, ok := l.peek(); ok && (b == 'e' || b == 'E') {
		save, saveCol := l.cur, l.col
		l.advance()
		if b2, ok := l.peek(); ok && (b2 == '+' || b2 == '-') {
			l.advance()
		}
		if b3, ok := l.peek(); ok && isDigit(b3) {
			isFloat = true
			for {
				b4, ok := l.peek()
				if !ok || !isDigit(b4) {
					break
				}
				l.advance()
			}
		} else {
			l.cur, l.col = save, saveCol
		}
	}

	lex := l.src[l.start:l.cur]
	if !isFloat {
		v, err := strconv.ParseInt(lex, 10, 64)
		if err != nil {
			return Token{}, l.errf("invalid integer literal %q", lex)
		}
		return l.token(INT, v), nil
	}
	v, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		return Token{}, l.errf("invalid number literal %q", lex)
	}
	return l.token(NUMBER, v), nil
}

func (l *lexer) scanIdent() Token {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	lex := l.src[l.start:l.cur]
	if tt, ok := keywords[lex]; ok {
		if tt == BOOL {
			return l.token(BOOL, lex == "true")
		}
		return l.token(tt, nil)
	}
	return l.token(IDENT, lex)
}

func (l *lexer) scanToken() (Token, error) {
	l.skipBlanksAndComments()
	l.start = l.cur
	l.tokLine, l.tokCol = l.line, l.col

	if l.atEnd() {
		return l.token(EOF, nil), nil
	}

	ch, _ := l.peek()
	if ch == '"' {
		return l.scanString()
	}
	if isDigit(ch) {
		return l.scanNumber()
	}
	if isAlpha(ch) {
		return l.scanIdent(), nil
	}

	l.advance()
	switch ch {
	case '(':
		return l.token(LPAREN, nil), nil
	case ')':
		return l.token(RPAREN, nil), nil
	case '[':
		return l.token(LBRACKET, nil), nil
	case ']':
		return l.token(RBRACKET, nil), nil
	case ',':
		return l.token(COMMA, nil), nil
	case '.':
		return l.token(DOT, nil), nil
	case ':':
		return l.token(COLON, nil), nil
	case '+':
		return l.token(PLUS, nil), nil
	case '-':
		return l.token(MINUS, nil), nil
	case '*':
		return l.token(STAR, nil), nil
	case '/':
		return l.token(SLASH, nil), nil
	case '^':
		return l.token(CARET, nil), nil
	case '%':
		return l.token(PERCENT, nil), nil
	case '@':
		return l.token(AT, nil), nil
	case '<':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.token(LE, nil), nil
		}
		return l.token(LT, nil), nil
	case '>':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.token(GE, nil), nil
		}
		return l.token(GT, nil), nil
	case '=':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.token(EQ, nil), nil
		}
		return l.token(ASSIGN, nil), nil
	case '!':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.token(NE, nil), nil
		}
		return Token{}, l.errf("unexpected character '!'")
	}
	return Token{}, l.errf("unexpected character %q", ch)
}

// scan tokenizes the whole source, EOF token included.
func scan(src string) ([]Token, error) {
	l := newLexer(src)
	var toks []Token
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}
