package lang

import "fmt"

// Error is a positioned diagnostic from the lexer, parser or
// evaluator. Line and Col are 1-based.
type Error struct {
	Phase string // "lex", "parse" or "eval"
	Line  int
	Col   int
	Msg   string
	Err   error // underlying cause, when one exists
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error at %d:%d: %s", e.Phase, e.Line, e.Col, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }
