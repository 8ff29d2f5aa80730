package lang

import (
	"strings"
	"testing"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := scan(src)
	if err != nil {
		t.Fatalf("scan(%q): %v", src, err)
	}
	return toks
}

func lexError(t *testing.T, src string) *Error {
	t.Helper()
	_, err := scan(src)
	if err == nil {
		t.Fatalf("expected scan(%q) to fail", src)
	}
	le, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if le.Phase != "lex" {
		t.Fatalf("expected lex phase, got %q", le.Phase)
	}
	return le
}

func TestScanOperators(t *testing.T) {
	toks := scanAll(t, "( ) [ ] , . : + - * / ^ % @ < <= > >= == != =")
	want := []TokenType{
		LPAREN, RPAREN, LBRACKET, RBRACKET, COMMA, DOT, COLON,
		PLUS, MINUS, STAR, SLASH, CARET, PERCENT, AT,
		LT, LE, GT, GE, EQ, NE, ASSIGN, EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Fatalf("token %d (%q): expected type %d, got %d", i, toks[i].Lexeme, w, toks[i].Type)
		}
	}
}

func TestScanNumbers(t *testing.T) {
	cases := []struct {
		src     string
		typ     TokenType
		literal any
	}{
		{"42", INT, int64(42)},
		{"0", INT, int64(0)},
		{"3.5", NUMBER, 3.5},
		{"0.25", NUMBER, 0.25},
		{"1e3", NUMBER, 1000.0},
		{"2.5e-1", NUMBER, 0.25},
		{"4E2", NUMBER, 400.0},
	}
	for _, tc := range cases {
		toks := scanAll(t, tc.src)
		if toks[0].Type != tc.typ {
			t.Fatalf("%q: expected type %d, got %d", tc.src, tc.typ, toks[0].Type)
		}
		if toks[0].Literal != tc.literal {
			t.Fatalf("%q: expected literal %v, got %v", tc.src, tc.literal, toks[0].Literal)
		}
	}
}

func TestScanDotAfterIntIsMethodCall(t *testing.T) {
	toks := scanAll(t, "2.abs()")
	want := []TokenType{INT, DOT, IDENT, LPAREN, RPAREN, EOF}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Fatalf("token %d: expected type %d, got %d", i, w, toks[i].Type)
		}
	}
	if toks[0].Literal != int64(2) {
		t.Fatalf("expected integer 2, got %v", toks[0].Literal)
	}
	if toks[2].Lexeme != "abs" {
		t.Fatalf("expected method name abs, got %q", toks[2].Lexeme)
	}
}

func TestScanBareExponentBacktracks(t *testing.T) {
	toks := scanAll(t, "1e")
	if toks[0].Type != INT || toks[0].Literal != int64(1) {
		t.Fatalf("expected integer 1, got %v (%v)", toks[0].Type, toks[0].Literal)
	}
	if toks[1].Type != IDENT || toks[1].Lexeme != "e" {
		t.Fatalf("expected identifier e, got %v (%q)", toks[1].Type, toks[1].Lexeme)
	}
}

func TestScanStrings(t *testing.T) {
	toks := scanAll(t, `"a.csv"`)
	if toks[0].Type != STRING || toks[0].Literal != "a.csv" {
		t.Fatalf("expected string a.csv, got %v", toks[0].Literal)
	}

	toks = scanAll(t, `"a\"b\\c\nd\te"`)
	if toks[0].Literal != "a\"b\\c\nd\te" {
		t.Fatalf("escapes were not decoded: %q", toks[0].Literal)
	}
}

func TestScanStringErrors(t *testing.T) {
	le := lexError(t, `"open`)
	if !strings.Contains(le.Msg, "not terminated") {
		t.Fatalf("expected a termination error, got %q", le.Msg)
	}

	le = lexError(t, `"bad\q"`)
	if !strings.Contains(le.Msg, "escape") {
		t.Fatalf("expected an escape error, got %q", le.Msg)
	}
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "let x true false letter")
	want := []struct {
		typ    TokenType
		lexeme string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{BOOL, "true"},
		{BOOL, "false"},
		{IDENT, "letter"},
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Lexeme != w.lexeme {
			t.Fatalf("token %d: expected %q of type %d, got %q of type %d",
				i, w.lexeme, w.typ, toks[i].Lexeme, toks[i].Type)
		}
	}
	if toks[2].Literal != true || toks[3].Literal != false {
		t.Fatalf("boolean literals not decoded: %v %v", toks[2].Literal, toks[3].Literal)
	}
}

func TestScanCommentsAndPositions(t *testing.T) {
	toks := scanAll(t, "a # trailing words\n  b")
	if len(toks) != 3 {
		t.Fatalf("expected a, b and EOF, got %d tokens", len(toks))
	}
	if toks[0].Line != 1 || toks[0].Col != 1 {
		t.Fatalf("a at %d:%d, expected 1:1", toks[0].Line, toks[0].Col)
	}
	if toks[1].Lexeme != "b" || toks[1].Line != 2 || toks[1].Col != 3 {
		t.Fatalf("b at %d:%d, expected 2:3", toks[1].Line, toks[1].Col)
	}
}

func TestScanUnexpectedCharacter(t *testing.T) {
	le := lexError(t, "a ? b")
	if !strings.Contains(le.Msg, "unexpected character") {
		t.Fatalf("expected an unexpected character error, got %q", le.Msg)
	}
	if le.Line != 1 || le.Col != 3 {
		t.Fatalf("error at %d:%d, expected 1:3", le.Line, le.Col)
	}

	le = lexError(t, "a ! b")
	if !strings.Contains(le.Msg, "'!'") {
		t.Fatalf("expected the bare ! to be rejected, got %q", le.Msg)
	}
}
