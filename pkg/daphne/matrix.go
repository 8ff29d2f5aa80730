package daphne

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/irhox/daphne/pkg/mat"
)

// Matrix is the lazy facade over a matrix-kinded DAG node. Every
// method builds a new node; no engine work happens before Compute.
type Matrix struct {
	n *node
}

func (m *Matrix) asInput() input { return input{node: m.n} }

func (m *Matrix) binary(op string, other Operand) *Matrix {
	return m.n.ctx.matrixNode(op, []input{nodeIn(m.n), other.asInput()})
}

func (m *Matrix) rbinary(op string, other Operand) *Matrix {
	return m.n.ctx.matrixNode(op, []input{other.asInput(), nodeIn(m.n)})
}

func (m *Matrix) unary(op string) *Matrix {
	return m.n.ctx.matrixNode(op, []input{nodeIn(m.n)})
}

func (m *Matrix) agg(op string) *Scalar {
	return m.n.ctx.scalarNode(op, []input{nodeIn(m.n)})
}

func (m *Matrix) aggAxis(op string, axis int64) (*Matrix, error) {
	if axis != 0 && axis != 1 {
		return nil, fmt.Errorf("%w: axis must be 0 or 1, got %d", ErrInvalidArgument, axis)
	}
	return m.n.ctx.matrixNode(op, []input{nodeIn(m.n), litIn(axis)}), nil
}

// Elementwise arithmetic and comparison. The second operand may be a
// matrix, a scalar node or a literal; the result is always a matrix.

func (m *Matrix) Add(other Operand) *Matrix { return m.binary("+", other) }
func (m *Matrix) Sub(other Operand) *Matrix { return m.binary("-", other) }
func (m *Matrix) Mul(other Operand) *Matrix { return m.binary("*", other) }
func (m *Matrix) Div(other Operand) *Matrix { return m.binary("/", other) }
func (m *Matrix) Pow(other Operand) *Matrix { return m.binary("^", other) }
func (m *Matrix) Mod(other Operand) *Matrix { return m.binary("%", other) }

func (m *Matrix) Lt(other Operand) *Matrix { return m.binary("<", other) }
func (m *Matrix) Le(other Operand) *Matrix { return m.binary("<=", other) }
func (m *Matrix) Gt(other Operand) *Matrix { return m.binary(">", other) }
func (m *Matrix) Ge(other Operand) *Matrix { return m.binary(">=", other) }
func (m *Matrix) Eq(other Operand) *Matrix { return m.binary("==", other) }
func (m *Matrix) Ne(other Operand) *Matrix { return m.binary("!=", other) }

// Operand-first comparisons, for callers holding the right operand of
// the expression. RLt builds other < m, and so on.
func (m *Matrix) RLt(other Operand) *Matrix { return m.rbinary("<", other) }
func (m *Matrix) RLe(other Operand) *Matrix { return m.rbinary("<=", other) }
func (m *Matrix) RGt(other Operand) *Matrix { return m.rbinary(">", other) }
func (m *Matrix) RGe(other Operand) *Matrix { return m.rbinary(">=", other) }
func (m *Matrix) REq(other Operand) *Matrix { return m.rbinary("==", other) }
func (m *Matrix) RNe(other Operand) *Matrix { return m.rbinary("!=", other) }

// MatMul is matrix multiplication.
func (m *Matrix) MatMul(other *Matrix) *Matrix { return m.binary("@", other) }

// Log computes the elementwise logarithm of m in the base given by
// other.
func (m *Matrix) Log(other Operand) *Matrix { return m.binary("log", other) }

// PowOp is the function-call form of Pow; the engine treats pow(a, b)
// and a ^ b the same.
func (m *Matrix) PowOp(other Operand) *Matrix { return m.binary("pow", other) }

// ModOp is the function-call form of Mod.
func (m *Matrix) ModOp(other Operand) *Matrix { return m.binary("mod", other) }

// Max takes the elementwise maximum of m and other.
func (m *Matrix) Max(other Operand) *Matrix { return m.binary("max", other) }

// Min takes the elementwise minimum of m and other.
func (m *Matrix) Min(other Operand) *Matrix { return m.binary("min", other) }

func (m *Matrix) Neg() *Matrix   { return m.unary("minus") }
func (m *Matrix) Abs() *Matrix   { return m.unary("abs") }
func (m *Matrix) Sign() *Matrix  { return m.unary("sign") }
func (m *Matrix) Exp() *Matrix   { return m.unary("exp") }
func (m *Matrix) Ln() *Matrix    { return m.unary("ln") }
func (m *Matrix) Sqrt() *Matrix  { return m.unary("sqrt") }
func (m *Matrix) Round() *Matrix { return m.unary("round") }
func (m *Matrix) Floor() *Matrix { return m.unary("floor") }
func (m *Matrix) Ceil() *Matrix  { return m.unary("ceil") }
func (m *Matrix) Sin() *Matrix   { return m.unary("sin") }
func (m *Matrix) Cos() *Matrix   { return m.unary("cos") }
func (m *Matrix) Tan() *Matrix   { return m.unary("tan") }
func (m *Matrix) Sinh() *Matrix  { return m.unary("sinh") }
func (m *Matrix) Cosh() *Matrix  { return m.unary("cosh") }
func (m *Matrix) Tanh() *Matrix  { return m.unary("tanh") }
func (m *Matrix) Asin() *Matrix  { return m.unary("asin") }
func (m *Matrix) Acos() *Matrix  { return m.unary("acos") }
func (m *Matrix) Atan() *Matrix  { return m.unary("atan") }

// IsNan marks NaN elements with 1 and everything else with 0.
func (m *Matrix) IsNan() *Matrix { return m.unary("isNan") }

// Whole-matrix aggregates collapse to a scalar; the *Along variants
// aggregate per column (axis 0) or per row (axis 1) and keep matrix
// shape.

func (m *Matrix) Sum() *Scalar    { return m.agg("sum") }
func (m *Matrix) Mean() *Scalar   { return m.agg("mean") }
func (m *Matrix) Var() *Scalar    { return m.agg("var") }
func (m *Matrix) Stddev() *Scalar { return m.agg("stddev") }
func (m *Matrix) AggMin() *Scalar { return m.agg("aggMin") }
func (m *Matrix) AggMax() *Scalar { return m.agg("aggMax") }

func (m *Matrix) SumAlong(axis int64) (*Matrix, error)    { return m.aggAxis("sum", axis) }
func (m *Matrix) MeanAlong(axis int64) (*Matrix, error)   { return m.aggAxis("mean", axis) }
func (m *Matrix) VarAlong(axis int64) (*Matrix, error)    { return m.aggAxis("var", axis) }
func (m *Matrix) StddevAlong(axis int64) (*Matrix, error) { return m.aggAxis("stddev", axis) }
func (m *Matrix) AggMinAlong(axis int64) (*Matrix, error) { return m.aggAxis("aggMin", axis) }
func (m *Matrix) AggMaxAlong(axis int64) (*Matrix, error) { return m.aggAxis("aggMax", axis) }

// IdxMinAlong locates the minimum along an axis. There is no
// whole-matrix form of idxMin/idxMax, so the axis is mandatory.
func (m *Matrix) IdxMinAlong(axis int64) (*Matrix, error) { return m.aggAxis("idxMin", axis) }

// IdxMaxAlong locates the maximum along an axis.
func (m *Matrix) IdxMaxAlong(axis int64) (*Matrix, error) { return m.aggAxis("idxMax", axis) }

func (m *Matrix) CumSum() *Matrix  { return m.unary("cumSum") }
func (m *Matrix) CumProd() *Matrix { return m.unary("cumProd") }
func (m *Matrix) CumMin() *Matrix  { return m.unary("cumMin") }
func (m *Matrix) CumMax() *Matrix  { return m.unary("cumMax") }

func (m *Matrix) NRow() *Scalar  { return m.agg("nrow") }
func (m *Matrix) NCol() *Scalar  { return m.agg("ncol") }
func (m *Matrix) NCell() *Scalar { return m.agg("ncell") }

// T transposes the matrix.
func (m *Matrix) T() *Matrix { return m.unary("t") }

func (m *Matrix) Reshape(rows, cols int64) *Matrix {
	return m.n.ctx.matrixNode("reshape", []input{nodeIn(m.n), litIn(rows), litIn(cols)})
}

func (m *Matrix) Reverse() *Matrix    { return m.unary("reverse") }
func (m *Matrix) DiagVector() *Matrix { return m.unary("diagVector") }

func (m *Matrix) LowerTri(diag, values bool) *Matrix {
	return m.n.ctx.matrixNode("lowerTri", []input{nodeIn(m.n), litIn(diag), litIn(values)})
}

func (m *Matrix) UpperTri(diag, values bool) *Matrix {
	return m.n.ctx.matrixNode("upperTri", []input{nodeIn(m.n), litIn(diag), litIn(values)})
}

// Replace substitutes every occurrence of pattern with replacement.
func (m *Matrix) Replace(pattern, replacement float64) *Matrix {
	return m.n.ctx.matrixNode("replace", []input{nodeIn(m.n), litIn(pattern), litIn(replacement)})
}

// Solve solves m * x = rhs for x.
func (m *Matrix) Solve(rhs *Matrix) *Matrix { return m.binary("solve", rhs) }

func (m *Matrix) Cbind(other *Matrix) *Matrix { return m.binary("cbind", other) }
func (m *Matrix) Rbind(other *Matrix) *Matrix { return m.binary("rbind", other) }

// IfElse picks thenVal where m is nonzero and elseVal elsewhere.
func (m *Matrix) IfElse(thenVal, elseVal Operand) *Matrix {
	return m.n.ctx.matrixNode("ifElse", []input{nodeIn(m.n), thenVal.asInput(), elseVal.asInput()})
}

// OneHot encodes columns of m as described by the info matrix.
func (m *Matrix) OneHot(info *Matrix) *Matrix { return m.binary("oneHot", info) }

// Bin buckets values into numBins equal-width bins over the observed
// value range.
func (m *Matrix) Bin(numBins int64) (*Matrix, error) {
	if numBins < 1 {
		return nil, fmt.Errorf("%w: numBins must be positive, got %d", ErrInvalidArgument, numBins)
	}
	return m.n.ctx.matrixNode("bin", []input{nodeIn(m.n), litIn(numBins)}), nil
}

// BinWithRange buckets values into numBins bins over [binMin, binMax].
// The bounds always travel together.
func (m *Matrix) BinWithRange(numBins int64, binMin, binMax float64) (*Matrix, error) {
	if numBins < 1 {
		return nil, fmt.Errorf("%w: numBins must be positive, got %d", ErrInvalidArgument, numBins)
	}
	if binMin > binMax {
		return nil, fmt.Errorf("%w: bin range [%v, %v] is inverted", ErrInvalidArgument, binMin, binMax)
	}
	return m.n.ctx.matrixNode("bin", []input{nodeIn(m.n), litIn(numBins), litIn(binMin), litIn(binMax)}), nil
}

// Order sorts rows by the given columns. colIdxs and ascs pair up one
// to one; returnIndexes asks for the permutation instead of the data.
func (m *Matrix) Order(colIdxs []int64, ascs []bool, returnIndexes bool) (*Matrix, error) {
	if len(colIdxs) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one column", ErrInvalidArgument)
	}
	if len(colIdxs) != len(ascs) {
		return nil, fmt.Errorf("%w: %d columns but %d sort directions", ErrInvalidArgument, len(colIdxs), len(ascs))
	}
	ins := make([]input, 0, 2+len(colIdxs)+len(ascs))
	ins = append(ins, nodeIn(m.n))
	for _, c := range colIdxs {
		ins = append(ins, litIn(c))
	}
	for _, a := range ascs {
		ins = append(ins, litIn(a))
	}
	ins = append(ins, litIn(returnIndexes))
	return m.n.ctx.matrixNode("order", ins), nil
}

// Outer combinations: every pairing of m's elements with other's,
// under one elementwise operator.

func (m *Matrix) OuterAdd(other *Matrix) *Matrix    { return m.binary("outerAdd", other) }
func (m *Matrix) OuterSub(other *Matrix) *Matrix    { return m.binary("outerSub", other) }
func (m *Matrix) OuterMul(other *Matrix) *Matrix    { return m.binary("outerMul", other) }
func (m *Matrix) OuterDiv(other *Matrix) *Matrix    { return m.binary("outerDiv", other) }
func (m *Matrix) OuterPow(other *Matrix) *Matrix    { return m.binary("outerPow", other) }
func (m *Matrix) OuterLog(other *Matrix) *Matrix    { return m.binary("outerLog", other) }
func (m *Matrix) OuterMod(other *Matrix) *Matrix    { return m.binary("outerMod", other) }
func (m *Matrix) OuterMin(other *Matrix) *Matrix    { return m.binary("outerMin", other) }
func (m *Matrix) OuterMax(other *Matrix) *Matrix    { return m.binary("outerMax", other) }
func (m *Matrix) OuterAnd(other *Matrix) *Matrix    { return m.binary("outerAnd", other) }
func (m *Matrix) OuterOr(other *Matrix) *Matrix     { return m.binary("outerOr", other) }
func (m *Matrix) OuterXor(other *Matrix) *Matrix    { return m.binary("outerXor", other) }
func (m *Matrix) OuterConcat(other *Matrix) *Matrix { return m.binary("outerConcat", other) }
func (m *Matrix) OuterEq(other *Matrix) *Matrix     { return m.binary("outerEq", other) }
func (m *Matrix) OuterNeq(other *Matrix) *Matrix    { return m.binary("outerNeq", other) }
func (m *Matrix) OuterLt(other *Matrix) *Matrix     { return m.binary("outerLt", other) }
func (m *Matrix) OuterLe(other *Matrix) *Matrix     { return m.binary("outerLe", other) }
func (m *Matrix) OuterGt(other *Matrix) *Matrix     { return m.binary("outerGt", other) }
func (m *Matrix) OuterGe(other *Matrix) *Matrix     { return m.binary("outerGe", other) }

// Slice reads the sub-matrix selected by two index components. Each
// may be a position, a range or a matrix selection.
func (m *Matrix) Slice(rows, cols Idx) (*Matrix, error) {
	ri, err := rows.readInput()
	if err != nil {
		return nil, err
	}
	ci, err := cols.readInput()
	if err != nil {
		return nil, err
	}
	n := m.n.ctx.newNode("", KindMatrix, []input{nodeIn(m.n), ri, ci}, nil)
	n.brackets = true
	return &Matrix{n: n}, nil
}

// SetSlice assigns value into the selected region, updating this
// handle in place. Reads built before the call keep seeing the old
// contents: the prior node state moves to a shadow node and every
// existing consumer is retargeted to it, while this node becomes the
// write. Matrix selections are not allowed as write keys.
func (m *Matrix) SetSlice(rows, cols Idx, value Operand) error {
	ri, err := rows.writeInput()
	if err != nil {
		return err
	}
	ci, err := cols.writeInput()
	if err != nil {
		return err
	}
	valIn := value.asInput()

	n := m.n
	shadow := &node{
		ctx:          n.ctx,
		op:           n.op,
		out:          n.out,
		inputs:       n.inputs,
		named:        n.named,
		consumers:    n.consumers,
		brackets:     n.brackets,
		leftBrackets: n.leftBrackets,
		payload:      n.payload,
		textPayload:  n.textPayload,
		framePayload: n.framePayload,
	}
	for _, consumer := range shadow.consumers {
		consumer.replaceInput(n, shadow)
	}

	*n = node{
		ctx:          shadow.ctx,
		out:          KindMatrix,
		leftBrackets: true,
		inputs:       []input{nodeIn(shadow), valIn, ri, ci},
	}
	shadow.consumers = append(shadow.consumers, n)
	if valIn.node != nil && valIn.node != n {
		valIn.node.consumers = append(valIn.node.consumers, n)
	}
	return nil
}

// Casts. The engine cast operator is as.<kind>, as.<vt> or
// as.<kind><<vt>>; at least one side must be requested.

func castTag(kind string, vt mat.ValueType) (string, error) {
	if kind == "" && vt == "" {
		return "", fmt.Errorf("%w: cast needs a target kind or value type", ErrInvalidArgument)
	}
	if vt != "" {
		if _, err := mat.Parse(string(vt)); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}
	switch {
	case kind == "":
		return "as." + string(vt), nil
	case vt == "":
		return "as." + kind, nil
	}
	return "as." + kind + "<" + string(vt) + ">", nil
}

// AsValueType casts elements to vt without changing the data kind.
func (m *Matrix) AsValueType(vt mat.ValueType) (*Matrix, error) {
	tag, err := castTag("", vt)
	if err != nil {
		return nil, err
	}
	return m.unary(tag), nil
}

// AsMatrix re-emits m as a matrix, optionally with a new value type.
// An empty vt keeps the current one.
func (m *Matrix) AsMatrix(vt mat.ValueType) (*Matrix, error) {
	tag, err := castTag("matrix", vt)
	if err != nil {
		return nil, err
	}
	return m.unary(tag), nil
}

// AsFrame casts m to a frame, optionally with a new value type.
func (m *Matrix) AsFrame(vt mat.ValueType) (*Frame, error) {
	tag, err := castTag("frame", vt)
	if err != nil {
		return nil, err
	}
	return m.n.ctx.frameNode(tag, []input{nodeIn(m.n)}), nil
}

// AsScalar casts a 1x1 matrix to a scalar, optionally with a new
// value type.
func (m *Matrix) AsScalar(vt mat.ValueType) (*Scalar, error) {
	tag, err := castTag("scalar", vt)
	if err != nil {
		return nil, err
	}
	return m.n.ctx.scalarNode(tag, []input{nodeIn(m.n)}), nil
}

// Copy makes an independent handle over the same value; later
// SetSlice calls on one are not seen through the other.
func (m *Matrix) Copy() *Matrix {
	return m.n.ctx.matrixNode("", []input{nodeIn(m.n)})
}

// Print emits the matrix on the engine's stdout when computed.
func (m *Matrix) Print() *Action {
	return m.n.ctx.actionNode("print", []input{nodeIn(m.n)})
}

// Write stores the matrix under path on the engine side when computed.
func (m *Matrix) Write(path string) *Action {
	return m.n.ctx.actionNode("writeMatrix", []input{nodeIn(m.n), litIn(path)})
}

// Script previews the script that Compute would run, without staging
// any data or touching the engine.
func (m *Matrix) Script() (string, error) {
	return m.n.ctx.previewNode(m.n)
}

// Compute materializes the DAG rooted here and returns the result.
func (m *Matrix) Compute(opts ...ComputeOption) (*mat.Dense, error) {
	return m.n.ctx.computeDense(m.n, opts)
}

// ComputeRecord materializes like Compute and wraps the result in an
// Arrow record with default column names.
func (m *Matrix) ComputeRecord(opts ...ComputeOption) (arrow.Record, error) {
	d, err := m.n.ctx.computeDense(m.n, opts)
	if err != nil {
		return nil, err
	}
	return mat.ToRecord(d, nil)
}
