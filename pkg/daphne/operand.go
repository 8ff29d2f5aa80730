package daphne

// Operand is anything that can stand on the right-hand side of a DAG
// operation: the facades in this package and the literal wrappers
// below. Implementations are closed over this package.
type Operand interface {
	asInput() input
}

type literal struct{ v any }

func (l literal) asInput() input { return input{lit: l.v} }

// Num wraps a floating-point literal for use as an operand.
func Num(v float64) Operand { return literal{v: v} }

// Int wraps an integer literal for use as an operand.
func Int(v int64) Operand { return literal{v: v} }

// Bool wraps a boolean literal for use as an operand.
func Bool(v bool) Operand { return literal{v: v} }

// Str wraps a string literal for use as an operand. It is rendered
// quoted in emitted scripts.
func Str(v string) Operand { return literal{v: v} }
