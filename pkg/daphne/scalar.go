package daphne

import "github.com/irhox/daphne/pkg/mat"

// Scalar is the lazy facade over a scalar-kinded DAG node.
type Scalar struct {
	n *node
}

func (s *Scalar) asInput() input { return input{node: s.n} }

func (s *Scalar) binary(op string, other Operand) *Scalar {
	return s.n.ctx.scalarNode(op, []input{nodeIn(s.n), other.asInput()})
}

func (s *Scalar) unary(op string) *Scalar {
	return s.n.ctx.scalarNode(op, []input{nodeIn(s.n)})
}

func (s *Scalar) Add(other Operand) *Scalar { return s.binary("+", other) }
func (s *Scalar) Sub(other Operand) *Scalar { return s.binary("-", other) }
func (s *Scalar) Mul(other Operand) *Scalar { return s.binary("*", other) }
func (s *Scalar) Div(other Operand) *Scalar { return s.binary("/", other) }
func (s *Scalar) Pow(other Operand) *Scalar { return s.binary("^", other) }
func (s *Scalar) Mod(other Operand) *Scalar { return s.binary("%", other) }

func (s *Scalar) Lt(other Operand) *Scalar { return s.binary("<", other) }
func (s *Scalar) Le(other Operand) *Scalar { return s.binary("<=", other) }
func (s *Scalar) Gt(other Operand) *Scalar { return s.binary(">", other) }
func (s *Scalar) Ge(other Operand) *Scalar { return s.binary(">=", other) }
func (s *Scalar) Eq(other Operand) *Scalar { return s.binary("==", other) }
func (s *Scalar) Ne(other Operand) *Scalar { return s.binary("!=", other) }

func (s *Scalar) Neg() *Scalar   { return s.unary("minus") }
func (s *Scalar) Abs() *Scalar   { return s.unary("abs") }
func (s *Scalar) Sqrt() *Scalar  { return s.unary("sqrt") }
func (s *Scalar) Exp() *Scalar   { return s.unary("exp") }
func (s *Scalar) Ln() *Scalar    { return s.unary("ln") }
func (s *Scalar) Round() *Scalar { return s.unary("round") }
func (s *Scalar) Floor() *Scalar { return s.unary("floor") }
func (s *Scalar) Ceil() *Scalar  { return s.unary("ceil") }

// AsMatrix lifts the scalar to a 1x1 matrix, optionally casting its
// value type.
func (s *Scalar) AsMatrix(vt mat.ValueType) (*Matrix, error) {
	tag, err := castTag("matrix", vt)
	if err != nil {
		return nil, err
	}
	return s.n.ctx.matrixNode(tag, []input{nodeIn(s.n)}), nil
}

// Print emits the value on the engine's stdout when computed.
func (s *Scalar) Print() *Action {
	return s.n.ctx.actionNode("print", []input{nodeIn(s.n)})
}

// Script previews the script that Compute would run.
func (s *Scalar) Script() (string, error) {
	return s.n.ctx.previewNode(s.n)
}

// Compute materializes the DAG rooted here. The engine prints the
// value and the parsed number is returned.
func (s *Scalar) Compute(opts ...ComputeOption) (float64, error) {
	return s.n.ctx.computeScalar(s.n, opts)
}
