// Package lang implements the expression mini-language over the client
// API: a lexer, a Pratt parser and an evaluator that turns expressions
// into lazy DAG facades. It backs the REPL and pipeline step
// expressions.
package lang

// TokenType classifies a lexical token.
type TokenType int

const (
	EOF TokenType = iota

	// Punctuation
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	COMMA
	DOT
	COLON

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	CARET
	PERCENT
	AT
	LT
	LE
	GT
	GE
	EQ
	NE
	ASSIGN

	// Literals and identifiers
	IDENT
	INT
	NUMBER
	STRING
	BOOL

	// Keywords
	LET
)

// Token is a lexical token with its decoded literal value, when it has
// one. Line and Col are 1-based.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any
	Line    int
	Col     int
}

var keywords = map[string]TokenType{
	"let":   LET,
	"true":  BOOL,
	"false": BOOL,
}
