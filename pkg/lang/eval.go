package lang

import (
	"fmt"
	"math"
	"sort"

	"github.com/irhox/daphne/pkg/daphne"
	"github.com/irhox/daphne/pkg/mat"
)

// Value is what an expression evaluates to: a DAG facade (*Matrix,
// *Scalar, *Frame, *Action) or a host literal (int64, float64, bool,
// string). Purely literal arithmetic is folded host-side, so integer
// results stay usable as shape and axis arguments.
type Value any

// Env binds names to values against one DAG context.
type Env struct {
	ctx  *daphne.Context
	vars map[string]Value
}

// NewEnv creates an empty environment over ctx.
func NewEnv(ctx *daphne.Context) *Env {
	return &Env{ctx: ctx, vars: map[string]Value{}}
}

// Context returns the DAG context the environment builds against.
func (e *Env) Context() *daphne.Context { return e.ctx }

// Define binds name to v, replacing any previous binding.
func (e *Env) Define(name string, v Value) { e.vars[name] = v }

// Lookup returns the value bound to name.
func (e *Env) Lookup(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Names lists the bound names in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for n := range e.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Eval parses and evaluates one expression.
func (e *Env) Eval(src string) (Value, error) {
	x, err := ParseExpr(src)
	if err != nil {
		return nil, err
	}
	return e.eval(x)
}

// EvalLine parses and evaluates one interactive line. When the line is
// a binding, the result is stored under the returned name.
func (e *Env) EvalLine(src string) (string, Value, error) {
	stmt, err := ParseLine(src)
	if err != nil {
		return "", nil, err
	}
	v, err := e.eval(stmt.X)
	if err != nil {
		return "", nil, err
	}
	if stmt.Name != "" {
		e.vars[stmt.Name] = v
	}
	return stmt.Name, v, nil
}

func evalErrf(at Expr, format string, args ...any) *Error {
	line, col := at.Pos()
	return &Error{Phase: "eval", Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func evalWrap(at Expr, err error) *Error {
	line, col := at.Pos()
	return &Error{Phase: "eval", Line: line, Col: col, Msg: err.Error(), Err: err}
}

// typeName names a value's type the way the language talks about it.
func typeName(v Value) string {
	switch v.(type) {
	case *daphne.Matrix:
		return "matrix"
	case *daphne.Scalar:
		return "scalar"
	case *daphne.Frame:
		return "frame"
	case *daphne.Action:
		return "action"
	case int64:
		return "integer"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case string:
		return "string"
	}
	return fmt.Sprintf("%T", v)
}

func (e *Env) eval(x Expr) (Value, error) {
	switch t := x.(type) {
	case *IntLit:
		return t.Value, nil
	case *NumLit:
		return t.Value, nil
	case *StrLit:
		return t.Value, nil
	case *BoolLit:
		return t.Value, nil
	case *Ident:
		if v, ok := e.vars[t.Name]; ok {
			return v, nil
		}
		return nil, evalErrf(t, "undefined name %q", t.Name)
	case *Unary:
		return e.unary(t)
	case *Binary:
		return e.binary(t)
	case *Call:
		return e.call(t)
	case *Method:
		return e.method(t)
	case *Index:
		return e.index(t)
	}
	return nil, evalErrf(x, "unhandled expression")
}

func (e *Env) unary(t *Unary) (Value, error) {
	v, err := e.eval(t.X)
	if err != nil {
		return nil, err
	}
	switch r := v.(type) {
	case *daphne.Matrix:
		return r.Neg(), nil
	case *daphne.Scalar:
		return r.Neg(), nil
	case float64:
		return -r, nil
	case int64:
		return -r, nil
	}
	return nil, evalErrf(t, "operator - is not defined for %s", typeName(v))
}

func (e *Env) binary(t *Binary) (Value, error) {
	lhs, err := e.eval(t.X)
	if err != nil {
		return nil, err
	}
	rhs, err := e.eval(t.Y)
	if err != nil {
		return nil, err
	}

	switch l := lhs.(type) {
	case *daphne.Matrix:
		return e.matrixBinary(t, l, rhs)
	case *daphne.Scalar:
		return e.scalarBinary(t, l, rhs)
	case *daphne.Frame:
		return nil, evalErrf(t, "frames support method calls, not operators")
	case int64, float64, bool, string:
		return e.literalBinary(t, lhs, rhs)
	}
	return nil, evalErrf(t, "operator %s is not defined for %s", t.Op, typeName(lhs))
}

func (e *Env) matrixBinary(t *Binary, m *daphne.Matrix, rhs Value) (Value, error) {
	if t.Op == "@" {
		rm, ok := rhs.(*daphne.Matrix)
		if !ok {
			return nil, evalErrf(t, "operator @ needs a matrix right operand, got %s", typeName(rhs))
		}
		return m.MatMul(rm), nil
	}
	o, err := operandOf(t.Y, rhs)
	if err != nil {
		return nil, err
	}
	switch t.Op {
	case "+":
		return m.Add(o), nil
	case "-":
		return m.Sub(o), nil
	case "*":
		return m.Mul(o), nil
	case "/":
		return m.Div(o), nil
	case "^":
		return m.Pow(o), nil
	case "%":
		return m.Mod(o), nil
	case "<":
		return m.Lt(o), nil
	case "<=":
		return m.Le(o), nil
	case ">":
		return m.Gt(o), nil
	case ">=":
		return m.Ge(o), nil
	case "==":
		return m.Eq(o), nil
	case "!=":
		return m.Ne(o), nil
	}
	return nil, evalErrf(t, "unknown operator %s", t.Op)
}

func (e *Env) scalarBinary(t *Binary, s *daphne.Scalar, rhs Value) (Value, error) {
	o, err := operandOf(t.Y, rhs)
	if err != nil {
		return nil, err
	}
	switch t.Op {
	case "+":
		return s.Add(o), nil
	case "-":
		return s.Sub(o), nil
	case "*":
		return s.Mul(o), nil
	case "/":
		return s.Div(o), nil
	case "^":
		return s.Pow(o), nil
	case "%":
		return s.Mod(o), nil
	case "<":
		return s.Lt(o), nil
	case "<=":
		return s.Le(o), nil
	case ">":
		return s.Gt(o), nil
	case ">=":
		return s.Ge(o), nil
	case "==":
		return s.Eq(o), nil
	case "!=":
		return s.Ne(o), nil
	}
	return nil, evalErrf(t, "operator %s is not defined for scalars", t.Op)
}

// literalBinary handles a host literal on the left. Commutative matrix
// arithmetic and all comparisons reverse onto the matrix operand;
// scalar operands are lifted into the DAG; two literals fold.
func (e *Env) literalBinary(t *Binary, lhs, rhs Value) (Value, error) {
	switch r := rhs.(type) {
	case *daphne.Matrix:
		o, err := operandOf(t.X, lhs)
		if err != nil {
			return nil, err
		}
		switch t.Op {
		case "+":
			return r.Add(o), nil
		case "*":
			return r.Mul(o), nil
		case "<":
			return r.RLt(o), nil
		case "<=":
			return r.RLe(o), nil
		case ">":
			return r.RGt(o), nil
		case ">=":
			return r.RGe(o), nil
		case "==":
			return r.REq(o), nil
		case "!=":
			return r.RNe(o), nil
		}
		return nil, evalErrf(t, "operator %s needs a matrix or scalar left operand", t.Op)
	case *daphne.Scalar:
		lifted, err := e.liftScalar(t.X, lhs)
		if err != nil {
			return nil, err
		}
		return e.scalarBinary(t, lifted, r)
	case int64, float64, bool, string:
		return foldLiterals(t, lhs, rhs)
	}
	return nil, evalErrf(t, "operator %s is not defined for %s and %s", t.Op, typeName(lhs), typeName(rhs))
}

func (e *Env) liftScalar(at Expr, v Value) (*daphne.Scalar, error) {
	switch l := v.(type) {
	case float64:
		return e.ctx.Scalar(l), nil
	case int64:
		return e.ctx.ScalarInt(l), nil
	}
	return nil, evalErrf(at, "%s cannot be lifted to a scalar", typeName(v))
}

func toHostFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func foldLiterals(t *Binary, lhs, rhs Value) (Value, error) {
	lf, lok := toHostFloat(lhs)
	rf, rok := toHostFloat(rhs)
	if !lok || !rok {
		return nil, evalErrf(t, "operator %s is not defined for %s and %s", t.Op, typeName(lhs), typeName(rhs))
	}

	li, lIsInt := lhs.(int64)
	ri, rIsInt := rhs.(int64)
	if lIsInt && rIsInt {
		switch t.Op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "%":
			if ri == 0 {
				return nil, evalErrf(t, "modulo by zero")
			}
			return li % ri, nil
		}
	}

	switch t.Op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		return lf / rf, nil
	case "%":
		return math.Mod(lf, rf), nil
	case "^":
		return math.Pow(lf, rf), nil
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	case "==":
		return lf == rf, nil
	case "!=":
		return lf != rf, nil
	case "@":
		return nil, evalErrf(t, "operator @ needs matrix operands")
	}
	return nil, evalErrf(t, "unknown operator %s", t.Op)
}

func operandOf(at Expr, v Value) (daphne.Operand, error) {
	switch o := v.(type) {
	case *daphne.Matrix:
		return o, nil
	case *daphne.Scalar:
		return o, nil
	case *daphne.Frame:
		return o, nil
	case float64:
		return daphne.Num(o), nil
	case int64:
		return daphne.Int(o), nil
	case bool:
		return daphne.Bool(o), nil
	case string:
		return daphne.Str(o), nil
	}
	return nil, evalErrf(at, "%s cannot be used as an operand", typeName(v))
}

func (e *Env) evalArgs(args []Expr) ([]Value, error) {
	out := make([]Value, len(args))
	for i, a := range args {
		v, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Argument coercion. Errors point at the call site and name the
// callable.

func needArgs(at Expr, what string, args []Value, n int) error {
	if len(args) != n {
		return evalErrf(at, "wrong argument count for %s: got %d, want %d", what, len(args), n)
	}
	return nil
}

func intArg(at Expr, what string, args []Value, i int) (int64, error) {
	if v, ok := args[i].(int64); ok {
		return v, nil
	}
	return 0, evalErrf(at, "%s: argument %d must be an integer, got %s", what, i+1, typeName(args[i]))
}

func floatArg(at Expr, what string, args []Value, i int) (float64, error) {
	if v, ok := toHostFloat(args[i]); ok {
		return v, nil
	}
	return 0, evalErrf(at, "%s: argument %d must be a number, got %s", what, i+1, typeName(args[i]))
}

func boolArg(at Expr, what string, args []Value, i int) (bool, error) {
	if v, ok := args[i].(bool); ok {
		return v, nil
	}
	return false, evalErrf(at, "%s: argument %d must be a boolean, got %s", what, i+1, typeName(args[i]))
}

func stringArg(at Expr, what string, args []Value, i int) (string, error) {
	if v, ok := args[i].(string); ok {
		return v, nil
	}
	return "", evalErrf(at, "%s: argument %d must be a string, got %s", what, i+1, typeName(args[i]))
}

func matrixArg(at Expr, what string, args []Value, i int) (*daphne.Matrix, error) {
	if v, ok := args[i].(*daphne.Matrix); ok {
		return v, nil
	}
	return nil, evalErrf(at, "%s: argument %d must be a matrix, got %s", what, i+1, typeName(args[i]))
}

func frameArg(at Expr, what string, args []Value, i int) (*daphne.Frame, error) {
	if v, ok := args[i].(*daphne.Frame); ok {
		return v, nil
	}
	return nil, evalErrf(at, "%s: argument %d must be a frame, got %s", what, i+1, typeName(args[i]))
}

// optVT reads an optional trailing value-type string argument.
func optVT(at Expr, what string, args []Value) (mat.ValueType, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		s, err := stringArg(at, what, args, 0)
		if err != nil {
			return "", err
		}
		return mat.ValueType(s), nil
	}
	return "", evalErrf(at, "%s takes at most one value type argument", what)
}

func (e *Env) call(t *Call) (Value, error) {
	args, err := e.evalArgs(t.Args)
	if err != nil {
		return nil, err
	}

	switch t.Fn {
	case "read":
		if err := needArgs(t, t.Fn, args, 1); err != nil {
			return nil, err
		}
		path, err := stringArg(t, t.Fn, args, 0)
		if err != nil {
			return nil, err
		}
		return e.ctx.ReadMatrix(path), nil

	case "readFrame":
		if err := needArgs(t, t.Fn, args, 1); err != nil {
			return nil, err
		}
		path, err := stringArg(t, t.Fn, args, 0)
		if err != nil {
			return nil, err
		}
		return e.ctx.ReadFrame(path), nil

	case "fill":
		if err := needArgs(t, t.Fn, args, 3); err != nil {
			return nil, err
		}
		value, err := floatArg(t, t.Fn, args, 0)
		if err != nil {
			return nil, err
		}
		rows, err := intArg(t, t.Fn, args, 1)
		if err != nil {
			return nil, err
		}
		cols, err := intArg(t, t.Fn, args, 2)
		if err != nil {
			return nil, err
		}
		return e.ctx.Fill(value, rows, cols), nil

	case "seq":
		if err := needArgs(t, t.Fn, args, 3); err != nil {
			return nil, err
		}
		start, err := floatArg(t, t.Fn, args, 0)
		if err != nil {
			return nil, err
		}
		end, err := floatArg(t, t.Fn, args, 1)
		if err != nil {
			return nil, err
		}
		inc, err := floatArg(t, t.Fn, args, 2)
		if err != nil {
			return nil, err
		}
		return e.ctx.Seq(start, end, inc), nil

	case "rand":
		if err := needArgs(t, t.Fn, args, 6); err != nil {
			return nil, err
		}
		rows, err := intArg(t, t.Fn, args, 0)
		if err != nil {
			return nil, err
		}
		cols, err := intArg(t, t.Fn, args, 1)
		if err != nil {
			return nil, err
		}
		minV, err := floatArg(t, t.Fn, args, 2)
		if err != nil {
			return nil, err
		}
		maxV, err := floatArg(t, t.Fn, args, 3)
		if err != nil {
			return nil, err
		}
		sparsity, err := floatArg(t, t.Fn, args, 4)
		if err != nil {
			return nil, err
		}
		seed, err := intArg(t, t.Fn, args, 5)
		if err != nil {
			return nil, err
		}
		return e.ctx.Rand(rows, cols, minV, maxV, sparsity, seed), nil

	case "sample":
		if err := needArgs(t, t.Fn, args, 4); err != nil {
			return nil, err
		}
		size, err := intArg(t, t.Fn, args, 0)
		if err != nil {
			return nil, err
		}
		population, err := intArg(t, t.Fn, args, 1)
		if err != nil {
			return nil, err
		}
		withReplacement, err := boolArg(t, t.Fn, args, 2)
		if err != nil {
			return nil, err
		}
		seed, err := intArg(t, t.Fn, args, 3)
		if err != nil {
			return nil, err
		}
		return e.ctx.Sample(size, population, withReplacement, seed), nil

	case "scalar":
		if err := needArgs(t, t.Fn, args, 1); err != nil {
			return nil, err
		}
		return e.liftScalar(t, args[0])
	}
	return nil, evalErrf(t, "unknown function %q", t.Fn)
}

func (e *Env) method(t *Method) (Value, error) {
	recv, err := e.eval(t.Recv)
	if err != nil {
		return nil, err
	}
	args, err := e.evalArgs(t.Args)
	if err != nil {
		return nil, err
	}
	switch r := recv.(type) {
	case *daphne.Matrix:
		return e.matrixMethod(t, r, args)
	case *daphne.Scalar:
		return e.scalarMethod(t, r, args)
	case *daphne.Frame:
		return e.frameMethod(t, r, args)
	}
	return nil, evalErrf(t, "%s has no methods", typeName(recv))
}

var matrixUnary = map[string]func(*daphne.Matrix) *daphne.Matrix{
	"abs":        (*daphne.Matrix).Abs,
	"sign":       (*daphne.Matrix).Sign,
	"exp":        (*daphne.Matrix).Exp,
	"ln":         (*daphne.Matrix).Ln,
	"sqrt":       (*daphne.Matrix).Sqrt,
	"round":      (*daphne.Matrix).Round,
	"floor":      (*daphne.Matrix).Floor,
	"ceil":       (*daphne.Matrix).Ceil,
	"sin":        (*daphne.Matrix).Sin,
	"cos":        (*daphne.Matrix).Cos,
	"tan":        (*daphne.Matrix).Tan,
	"sinh":       (*daphne.Matrix).Sinh,
	"cosh":       (*daphne.Matrix).Cosh,
	"tanh":       (*daphne.Matrix).Tanh,
	"asin":       (*daphne.Matrix).Asin,
	"acos":       (*daphne.Matrix).Acos,
	"atan":       (*daphne.Matrix).Atan,
	"isNan":      (*daphne.Matrix).IsNan,
	"cumSum":     (*daphne.Matrix).CumSum,
	"cumProd":    (*daphne.Matrix).CumProd,
	"cumMin":     (*daphne.Matrix).CumMin,
	"cumMax":     (*daphne.Matrix).CumMax,
	"t":          (*daphne.Matrix).T,
	"reverse":    (*daphne.Matrix).Reverse,
	"diagVector": (*daphne.Matrix).DiagVector,
	"copy":       (*daphne.Matrix).Copy,
}

var matrixAgg = map[string]func(*daphne.Matrix) *daphne.Scalar{
	"sum":    (*daphne.Matrix).Sum,
	"mean":   (*daphne.Matrix).Mean,
	"var":    (*daphne.Matrix).Var,
	"stddev": (*daphne.Matrix).Stddev,
	"aggMin": (*daphne.Matrix).AggMin,
	"aggMax": (*daphne.Matrix).AggMax,
	"nrow":   (*daphne.Matrix).NRow,
	"ncol":   (*daphne.Matrix).NCol,
	"ncell":  (*daphne.Matrix).NCell,
}

var matrixAggAxis = map[string]func(*daphne.Matrix, int64) (*daphne.Matrix, error){
	"sum":    (*daphne.Matrix).SumAlong,
	"mean":   (*daphne.Matrix).MeanAlong,
	"var":    (*daphne.Matrix).VarAlong,
	"stddev": (*daphne.Matrix).StddevAlong,
	"aggMin": (*daphne.Matrix).AggMinAlong,
	"aggMax": (*daphne.Matrix).AggMaxAlong,
	"idxMin": (*daphne.Matrix).IdxMinAlong,
	"idxMax": (*daphne.Matrix).IdxMaxAlong,
}

var matrixOperand = map[string]func(*daphne.Matrix, daphne.Operand) *daphne.Matrix{
	"max": (*daphne.Matrix).Max,
	"min": (*daphne.Matrix).Min,
	"log": (*daphne.Matrix).Log,
	"pow": (*daphne.Matrix).PowOp,
	"mod": (*daphne.Matrix).ModOp,
}

var matrixPair = map[string]func(*daphne.Matrix, *daphne.Matrix) *daphne.Matrix{
	"solve":       (*daphne.Matrix).Solve,
	"cbind":       (*daphne.Matrix).Cbind,
	"rbind":       (*daphne.Matrix).Rbind,
	"oneHot":      (*daphne.Matrix).OneHot,
	"outerAdd":    (*daphne.Matrix).OuterAdd,
	"outerSub":    (*daphne.Matrix).OuterSub,
	"outerMul":    (*daphne.Matrix).OuterMul,
	"outerDiv":    (*daphne.Matrix).OuterDiv,
	"outerPow":    (*daphne.Matrix).OuterPow,
	"outerLog":    (*daphne.Matrix).OuterLog,
	"outerMod":    (*daphne.Matrix).OuterMod,
	"outerMin":    (*daphne.Matrix).OuterMin,
	"outerMax":    (*daphne.Matrix).OuterMax,
	"outerAnd":    (*daphne.Matrix).OuterAnd,
	"outerOr":     (*daphne.Matrix).OuterOr,
	"outerXor":    (*daphne.Matrix).OuterXor,
	"outerConcat": (*daphne.Matrix).OuterConcat,
	"outerEq":     (*daphne.Matrix).OuterEq,
	"outerNeq":    (*daphne.Matrix).OuterNeq,
	"outerLt":     (*daphne.Matrix).OuterLt,
	"outerLe":     (*daphne.Matrix).OuterLe,
	"outerGt":     (*daphne.Matrix).OuterGt,
	"outerGe":     (*daphne.Matrix).OuterGe,
}

func (e *Env) matrixMethod(t *Method, m *daphne.Matrix, args []Value) (Value, error) {
	if fn, ok := matrixUnary[t.Name]; ok {
		if err := needArgs(t, t.Name, args, 0); err != nil {
			return nil, err
		}
		return fn(m), nil
	}
	if fn, ok := matrixAgg[t.Name]; ok && len(args) == 0 {
		return fn(m), nil
	}
	if fn, ok := matrixAggAxis[t.Name]; ok {
		if len(args) != 1 {
			if t.Name == "idxMin" || t.Name == "idxMax" {
				return nil, evalErrf(t, "%s needs an axis argument", t.Name)
			}
			return nil, evalErrf(t, "%s takes no arguments or one axis", t.Name)
		}
		axis, err := intArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		out, err := fn(m, axis)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil
	}
	if fn, ok := matrixOperand[t.Name]; ok {
		if err := needArgs(t, t.Name, args, 1); err != nil {
			return nil, err
		}
		o, err := operandOf(t, args[0])
		if err != nil {
			return nil, err
		}
		return fn(m, o), nil
	}
	if fn, ok := matrixPair[t.Name]; ok {
		if err := needArgs(t, t.Name, args, 1); err != nil {
			return nil, err
		}
		other, err := matrixArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		return fn(m, other), nil
	}

	switch t.Name {
	case "reshape":
		if err := needArgs(t, t.Name, args, 2); err != nil {
			return nil, err
		}
		rows, err := intArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		cols, err := intArg(t, t.Name, args, 1)
		if err != nil {
			return nil, err
		}
		return m.Reshape(rows, cols), nil

	case "lowerTri", "upperTri":
		if err := needArgs(t, t.Name, args, 2); err != nil {
			return nil, err
		}
		diag, err := boolArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		values, err := boolArg(t, t.Name, args, 1)
		if err != nil {
			return nil, err
		}
		if t.Name == "lowerTri" {
			return m.LowerTri(diag, values), nil
		}
		return m.UpperTri(diag, values), nil

	case "replace":
		if err := needArgs(t, t.Name, args, 2); err != nil {
			return nil, err
		}
		pattern, err := floatArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		replacement, err := floatArg(t, t.Name, args, 1)
		if err != nil {
			return nil, err
		}
		return m.Replace(pattern, replacement), nil

	case "ifElse":
		if err := needArgs(t, t.Name, args, 2); err != nil {
			return nil, err
		}
		thenVal, err := operandOf(t, args[0])
		if err != nil {
			return nil, err
		}
		elseVal, err := operandOf(t, args[1])
		if err != nil {
			return nil, err
		}
		return m.IfElse(thenVal, elseVal), nil

	case "bin":
		switch len(args) {
		case 1:
			n, err := intArg(t, t.Name, args, 0)
			if err != nil {
				return nil, err
			}
			out, err := m.Bin(n)
			if err != nil {
				return nil, evalWrap(t, err)
			}
			return out, nil
		case 3:
			n, err := intArg(t, t.Name, args, 0)
			if err != nil {
				return nil, err
			}
			binMin, err := floatArg(t, t.Name, args, 1)
			if err != nil {
				return nil, err
			}
			binMax, err := floatArg(t, t.Name, args, 2)
			if err != nil {
				return nil, err
			}
			out, err := m.BinWithRange(n, binMin, binMax)
			if err != nil {
				return nil, evalWrap(t, err)
			}
			return out, nil
		}
		return nil, evalErrf(t, "bin takes numBins alone, or numBins with both min and max")

	case "order":
		if err := needArgs(t, t.Name, args, 3); err != nil {
			return nil, err
		}
		col, err := intArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		asc, err := boolArg(t, t.Name, args, 1)
		if err != nil {
			return nil, err
		}
		returnIndexes, err := boolArg(t, t.Name, args, 2)
		if err != nil {
			return nil, err
		}
		out, err := m.Order([]int64{col}, []bool{asc}, returnIndexes)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil

	case "asMatrix":
		vt, err := optVT(t, t.Name, args)
		if err != nil {
			return nil, err
		}
		out, err := m.AsMatrix(vt)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil

	case "asFrame":
		vt, err := optVT(t, t.Name, args)
		if err != nil {
			return nil, err
		}
		out, err := m.AsFrame(vt)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil

	case "asScalar":
		vt, err := optVT(t, t.Name, args)
		if err != nil {
			return nil, err
		}
		out, err := m.AsScalar(vt)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil

	case "asValueType":
		if err := needArgs(t, t.Name, args, 1); err != nil {
			return nil, err
		}
		s, err := stringArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		out, err := m.AsValueType(mat.ValueType(s))
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil

	case "print":
		if err := needArgs(t, t.Name, args, 0); err != nil {
			return nil, err
		}
		return m.Print(), nil

	case "write":
		if err := needArgs(t, t.Name, args, 1); err != nil {
			return nil, err
		}
		path, err := stringArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		return m.Write(path), nil
	}
	return nil, evalErrf(t, "matrix has no method %q", t.Name)
}

var scalarUnary = map[string]func(*daphne.Scalar) *daphne.Scalar{
	"abs":   (*daphne.Scalar).Abs,
	"sqrt":  (*daphne.Scalar).Sqrt,
	"exp":   (*daphne.Scalar).Exp,
	"ln":    (*daphne.Scalar).Ln,
	"round": (*daphne.Scalar).Round,
	"floor": (*daphne.Scalar).Floor,
	"ceil":  (*daphne.Scalar).Ceil,
}

func (e *Env) scalarMethod(t *Method, s *daphne.Scalar, args []Value) (Value, error) {
	if fn, ok := scalarUnary[t.Name]; ok {
		if err := needArgs(t, t.Name, args, 0); err != nil {
			return nil, err
		}
		return fn(s), nil
	}
	switch t.Name {
	case "asMatrix":
		vt, err := optVT(t, t.Name, args)
		if err != nil {
			return nil, err
		}
		out, err := s.AsMatrix(vt)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil
	case "print":
		if err := needArgs(t, t.Name, args, 0); err != nil {
			return nil, err
		}
		return s.Print(), nil
	}
	return nil, evalErrf(t, "scalar has no method %q", t.Name)
}

var frameAgg = map[string]func(*daphne.Frame) *daphne.Scalar{
	"nrow":  (*daphne.Frame).NRow,
	"ncol":  (*daphne.Frame).NCol,
	"ncell": (*daphne.Frame).NCell,
}

var framePair = map[string]func(*daphne.Frame, *daphne.Frame) *daphne.Frame{
	"cbind":     (*daphne.Frame).Cbind,
	"rbind":     (*daphne.Frame).Rbind,
	"cartesian": (*daphne.Frame).Cartesian,
}

func (e *Env) frameMethod(t *Method, f *daphne.Frame, args []Value) (Value, error) {
	if fn, ok := frameAgg[t.Name]; ok {
		if err := needArgs(t, t.Name, args, 0); err != nil {
			return nil, err
		}
		return fn(f), nil
	}
	if fn, ok := framePair[t.Name]; ok {
		if err := needArgs(t, t.Name, args, 1); err != nil {
			return nil, err
		}
		other, err := frameArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		return fn(f, other), nil
	}

	switch t.Name {
	case "innerJoin":
		if err := needArgs(t, t.Name, args, 3); err != nil {
			return nil, err
		}
		other, err := frameArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		lhsOn, err := stringArg(t, t.Name, args, 1)
		if err != nil {
			return nil, err
		}
		rhsOn, err := stringArg(t, t.Name, args, 2)
		if err != nil {
			return nil, err
		}
		return f.InnerJoin(other, lhsOn, rhsOn), nil

	case "setColLabelsPrefix":
		if err := needArgs(t, t.Name, args, 1); err != nil {
			return nil, err
		}
		prefix, err := stringArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		return f.SetColLabelsPrefix(prefix), nil

	case "toMatrix":
		vt, err := optVT(t, t.Name, args)
		if err != nil {
			return nil, err
		}
		out, err := f.ToMatrix(vt)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil

	case "order":
		if err := needArgs(t, t.Name, args, 3); err != nil {
			return nil, err
		}
		col, err := intArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		asc, err := boolArg(t, t.Name, args, 1)
		if err != nil {
			return nil, err
		}
		returnIndexes, err := boolArg(t, t.Name, args, 2)
		if err != nil {
			return nil, err
		}
		out, err := f.Order([]int64{col}, []bool{asc}, returnIndexes)
		if err != nil {
			return nil, evalWrap(t, err)
		}
		return out, nil

	case "print":
		if err := needArgs(t, t.Name, args, 0); err != nil {
			return nil, err
		}
		return f.Print(), nil

	case "write":
		if err := needArgs(t, t.Name, args, 1); err != nil {
			return nil, err
		}
		path, err := stringArg(t, t.Name, args, 0)
		if err != nil {
			return nil, err
		}
		return f.Write(path), nil
	}
	return nil, evalErrf(t, "frame has no method %q", t.Name)
}

func (e *Env) index(t *Index) (Value, error) {
	recv, err := e.eval(t.Recv)
	if err != nil {
		return nil, err
	}
	m, ok := recv.(*daphne.Matrix)
	if !ok {
		return nil, evalErrf(t, "only matrices can be indexed, got %s", typeName(recv))
	}
	rows, err := e.indexOf(t, t.Rows)
	if err != nil {
		return nil, err
	}
	cols, err := e.indexOf(t, t.Cols)
	if err != nil {
		return nil, err
	}
	out, err := m.Slice(rows, cols)
	if err != nil {
		return nil, evalWrap(t, err)
	}
	return out, nil
}

func (e *Env) indexOf(at Expr, k IndexKey) (daphne.Idx, error) {
	if !k.Colon {
		v, err := e.eval(k.Start)
		if err != nil {
			return daphne.Idx{}, err
		}
		switch p := v.(type) {
		case int64:
			return daphne.Pos(p), nil
		case *daphne.Matrix:
			return daphne.Sel(p), nil
		}
		return daphne.Idx{}, evalErrf(k.Start, "index positions must be integers or matrix selections, got %s", typeName(v))
	}

	bound := func(x Expr) (int64, error) {
		v, err := e.eval(x)
		if err != nil {
			return 0, err
		}
		i, ok := v.(int64)
		if !ok {
			return 0, evalErrf(x, "range bounds must be integers, got %s", typeName(v))
		}
		return i, nil
	}

	switch {
	case k.Start == nil && k.Stop == nil:
		return daphne.All(), nil
	case k.Start == nil:
		stop, err := bound(k.Stop)
		if err != nil {
			return daphne.Idx{}, err
		}
		return daphne.RangeTo(stop), nil
	case k.Stop == nil:
		start, err := bound(k.Start)
		if err != nil {
			return daphne.Idx{}, err
		}
		return daphne.RangeFrom(start), nil
	}
	start, err := bound(k.Start)
	if err != nil {
		return daphne.Idx{}, err
	}
	stop, err := bound(k.Stop)
	if err != nil {
		return daphne.Idx{}, err
	}
	return daphne.Range(start, stop), nil
}
