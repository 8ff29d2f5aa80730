package lang

import "fmt"

// ParseExpr parses a complete expression.
func ParseExpr(src string) (Expr, error) {
	toks, err := scan(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	x, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return x, nil
}

// ParseLine parses one interactive line: `let name = expr`,
// `name = expr` or a bare expression.
func ParseLine(src string) (Stmt, error) {
	toks, err := scan(src)
	if err != nil {
		return Stmt{}, err
	}
	p := &parser{toks: toks}

	bind := false
	if p.match(LET) {
		bind = true
	} else if p.peek().Type == IDENT && p.peekNext().Type == ASSIGN {
		bind = true
	}

	var name string
	if bind {
		tok, err := p.need(IDENT, "expected a name to bind")
		if err != nil {
			return Stmt{}, err
		}
		name = tok.Lexeme
		if _, err := p.need(ASSIGN, "expected '=' after the name"); err != nil {
			return Stmt{}, err
		}
	}

	x, err := p.expr(0)
	if err != nil {
		return Stmt{}, err
	}
	if err := p.expectEOF(); err != nil {
		return Stmt{}, err
	}
	return Stmt{Name: name, X: x}, nil
}

type parser struct {
	toks []Token
	i    int
}

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekNext() Token {
	if p.i+1 >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+1]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) errAt(tok Token, msg string) *Error {
	return &Error{Phase: "parse", Line: tok.Line, Col: tok.Col, Msg: msg}
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	g := p.peek()
	if g.Type == EOF {
		return Token{}, p.errAt(g, msg+", got end of input")
	}
	return Token{}, p.errAt(g, fmt.Sprintf("%s, got %q", msg, g.Lexeme))
}

func (p *parser) expectEOF() error {
	if g := p.peek(); g.Type != EOF {
		return p.errAt(g, fmt.Sprintf("unexpected trailing input %q", g.Lexeme))
	}
	return nil
}

// Binding powers. Postfix forms (call, method, index) always bind
// tighter than any operator; unary minus parses its operand at 70.
func lbp(t TokenType) (int, bool) {
	switch t {
	case LT, LE, GT, GE, EQ, NE:
		return 30, true
	case PLUS, MINUS:
		return 40, true
	case STAR, SLASH, PERCENT, AT:
		return 50, true
	case CARET:
		return 60, true
	}
	return 0, false
}

func isRightAssoc(t TokenType) bool { return t == CARET }

const unaryBP = 70

func (p *parser) expr(minBP int) (Expr, error) {
	t := p.peek()
	p.i++

	var left Expr
	switch t.Type {
	case INT:
		left = &IntLit{Line: t.Line, Col: t.Col, Value: t.Literal.(int64)}
	case NUMBER:
		left = &NumLit{Line: t.Line, Col: t.Col, Value: t.Literal.(float64)}
	case STRING:
		left = &StrLit{Line: t.Line, Col: t.Col, Value: t.Literal.(string)}
	case BOOL:
		left = &BoolLit{Line: t.Line, Col: t.Col, Value: t.Literal.(bool)}
	case IDENT:
		if p.peek().Type == LPAREN {
			p.i++
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			left = &Call{Line: t.Line, Col: t.Col, Fn: t.Lexeme, Args: args}
		} else {
			left = &Ident{Line: t.Line, Col: t.Col, Name: t.Lexeme}
		}
	case MINUS:
		x, err := p.expr(unaryBP)
		if err != nil {
			return nil, err
		}
		left = &Unary{Line: t.Line, Col: t.Col, Op: "-", X: x}
	case LPAREN:
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		left = inner
	case EOF:
		return nil, p.errAt(t, "unexpected end of input")
	default:
		return nil, p.errAt(t, fmt.Sprintf("unexpected token %q", t.Lexeme))
	}

	// Postfix chain: .method(args) and [rows, cols].
	for {
		switch p.peek().Type {
		case DOT:
			dot := p.peek()
			p.i++
			nameTok, err := p.need(IDENT, "expected a method name after '.'")
			if err != nil {
				return nil, err
			}
			if _, err := p.need(LPAREN, "expected '(' after the method name"); err != nil {
				return nil, err
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			left = &Method{Line: dot.Line, Col: dot.Col, Recv: left, Name: nameTok.Lexeme, Args: args}
			continue
		case LBRACKET:
			br := p.peek()
			p.i++
			rows, err := p.indexKey()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(COMMA, "expected ',' between row and column index"); err != nil {
				return nil, err
			}
			cols, err := p.indexKey()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RBRACKET, "expected ']'"); err != nil {
				return nil, err
			}
			left = &Index{Line: br.Line, Col: br.Col, Recv: left, Rows: rows, Cols: cols}
			continue
		}
		break
	}

	// Infix loop.
	for {
		op := p.peek()
		bp, ok := lbp(op.Type)
		if !ok || bp < minBP {
			break
		}
		p.i++

		nextBP := bp + 1
		if isRightAssoc(op.Type) {
			nextBP = bp
		}
		right, err := p.expr(nextBP)
		if err != nil {
			return nil, err
		}
		left = &Binary{Line: op.Line, Col: op.Col, Op: op.Lexeme, X: left, Y: right}
	}
	return left, nil
}

func (p *parser) callArgs() ([]Expr, error) {
	var args []Expr
	if p.match(RPAREN) {
		return args, nil
	}
	for {
		if !p.startsExpr(p.peek()) {
			_, err := p.need(RPAREN, "expected ')' after arguments")
			return nil, err
		}
		a, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RPAREN, "expected ')' after arguments"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) startsExpr(t Token) bool {
	switch t.Type {
	case INT, NUMBER, STRING, BOOL, IDENT, MINUS, LPAREN:
		return true
	}
	return false
}

func (p *parser) indexKey() (IndexKey, error) {
	if p.match(COLON) {
		key := IndexKey{Colon: true}
		if p.startsExpr(p.peek()) {
			stop, err := p.expr(0)
			if err != nil {
				return IndexKey{}, err
			}
			key.Stop = stop
		}
		return key, nil
	}

	start, err := p.expr(0)
	if err != nil {
		return IndexKey{}, err
	}
	if !p.match(COLON) {
		return IndexKey{Start: start}, nil
	}
	key := IndexKey{Colon: true, Start: start}
	if p.startsExpr(p.peek()) {
		stop, err := p.expr(0)
		if err != nil {
			return IndexKey{}, err
		}
		key.Stop = stop
	}
	return key, nil
}
