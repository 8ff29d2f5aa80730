package lang

import (
	"errors"
	"strings"
	"testing"

	"github.com/irhox/daphne/pkg/daphne"
)

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	ctx, err := daphne.NewContext(daphne.WithTmpDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return NewEnv(ctx)
}

// matrixEnv binds x and y to matrix reads so expressions have
// something to chew on.
func matrixEnv(t *testing.T) *Env {
	t.Helper()
	env := newTestEnv(t)
	env.Define("x", env.Context().ReadMatrix("x.csv"))
	env.Define("y", env.Context().ReadMatrix("y.csv"))
	return env
}

func mustEval(t *testing.T, env *Env, src string) Value {
	t.Helper()
	v, err := env.Eval(src)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return v
}

func evalError(t *testing.T, env *Env, src string) *Error {
	t.Helper()
	_, err := env.Eval(src)
	if err == nil {
		t.Fatalf("expected Eval(%q) to fail", src)
	}
	ee, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return ee
}

func scriptOf(t *testing.T, v Value) string {
	t.Helper()
	var s string
	var err error
	switch r := v.(type) {
	case *daphne.Matrix:
		s, err = r.Script()
	case *daphne.Scalar:
		s, err = r.Script()
	case *daphne.Frame:
		s, err = r.Script()
	case *daphne.Action:
		s, err = r.Script()
	default:
		t.Fatalf("value %T has no script", v)
	}
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	return s
}

func TestEvalFoldsLiterals(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		src  string
		want Value
	}{
		{"1 + 2 * 3", int64(7)},
		{"3 - 5", int64(-2)},
		{"7 % 3", int64(1)},
		{"1 / 2", 0.5},
		{"2 ^ 3", 8.0},
		{"2.5 + 1", 3.5},
		{"-4", int64(-4)},
		{"-2.5", -2.5},
		{"2 < 3", true},
		{"2 >= 3", false},
		{"1.5 == 1.5", true},
	}
	for _, tc := range cases {
		if got := mustEval(t, env, tc.src); got != tc.want {
			t.Fatalf("%q: expected %v (%T), got %v (%T)", tc.src, tc.want, tc.want, got, got)
		}
	}

	ee := evalError(t, env, "5 % 0")
	if !strings.Contains(ee.Msg, "modulo by zero") {
		t.Fatalf("expected modulo by zero, got %q", ee.Msg)
	}
}

func TestEvalEmitsInfix(t *testing.T) {
	env := matrixEnv(t)
	v := mustEval(t, env, "x + y")
	want := `V0 = readMatrix("x.csv");
V1 = readMatrix("y.csv");
V2 = V0 + V1;
`
	if got := scriptOf(t, v); got != want {
		t.Fatalf("script mismatch:\ngot:\n%swant:\n%s", got, want)
	}

	v = mustEval(t, env, "x @ y.t()")
	got := scriptOf(t, v)
	if !strings.Contains(got, "V2 = t(V1);") || !strings.Contains(got, "V3 = V0 @ V2;") {
		t.Fatalf("expected a transposed matmul, got:\n%s", got)
	}
}

func TestEvalFoldedShapeArguments(t *testing.T) {
	env := matrixEnv(t)
	v := mustEval(t, env, "x.reshape(2*2, 1)")
	if _, ok := v.(*daphne.Matrix); !ok {
		t.Fatalf("expected a matrix, got %T", v)
	}
	if got := scriptOf(t, v); !strings.Contains(got, "reshape(V0, 4, 1);") {
		t.Fatalf("expected the folded shape in the script, got:\n%s", got)
	}
}

func TestEvalLiteralLeftOperand(t *testing.T) {
	env := matrixEnv(t)

	got := scriptOf(t, mustEval(t, env, "2.0 + x"))
	if !strings.Contains(got, "V1 = V0 + 2.0;") {
		t.Fatalf("expected addition to commute onto the matrix, got:\n%s", got)
	}

	got = scriptOf(t, mustEval(t, env, "3.0 * x"))
	if !strings.Contains(got, "V1 = V0 * 3.0;") {
		t.Fatalf("expected multiplication to commute onto the matrix, got:\n%s", got)
	}

	got = scriptOf(t, mustEval(t, env, "5.0 < x"))
	if !strings.Contains(got, "V1 = 5.0 < V0;") {
		t.Fatalf("expected the comparison to keep its operand order, got:\n%s", got)
	}

	ee := evalError(t, env, "5.0 - x")
	if !strings.Contains(ee.Msg, "matrix or scalar left operand") {
		t.Fatalf("expected the literal subtraction to be rejected, got %q", ee.Msg)
	}

	got = scriptOf(t, mustEval(t, env, "2 + x.sum()"))
	if !strings.Contains(got, "V0 = 2;") || !strings.Contains(got, "V3 = V0 + V2;") {
		t.Fatalf("expected the integer to be lifted without a decimal point, got:\n%s", got)
	}
}

func TestEvalMatrixMethods(t *testing.T) {
	env := matrixEnv(t)

	if _, ok := mustEval(t, env, "x.abs().sum()").(*daphne.Scalar); !ok {
		t.Fatalf("expected the full aggregate to be a scalar")
	}

	v := mustEval(t, env, "x.sum(0)")
	if _, ok := v.(*daphne.Matrix); !ok {
		t.Fatalf("expected the axis aggregate to be a matrix, got %T", v)
	}
	if got := scriptOf(t, v); !strings.Contains(got, "sum(V0, 0);") {
		t.Fatalf("expected the axis in the script, got:\n%s", got)
	}

	v = mustEval(t, env, "x.order(0, true, false)")
	if got := scriptOf(t, v); !strings.Contains(got, "order(V0, 0, true, false);") {
		t.Fatalf("expected the order call, got:\n%s", got)
	}

	if _, ok := mustEval(t, env, "x.cbind(y)").(*daphne.Matrix); !ok {
		t.Fatalf("expected cbind to give a matrix")
	}
	if _, ok := mustEval(t, env, "x.max(0.0)").(*daphne.Matrix); !ok {
		t.Fatalf("expected max to give a matrix")
	}
	if _, ok := mustEval(t, env, "x.print()").(*daphne.Action); !ok {
		t.Fatalf("expected print to give an action")
	}
	if _, ok := mustEval(t, env, `x.sum().asMatrix()`).(*daphne.Matrix); !ok {
		t.Fatalf("expected the scalar cast to give a matrix")
	}
}

func TestEvalMethodErrors(t *testing.T) {
	env := matrixEnv(t)

	ee := evalError(t, env, "x.idxMin()")
	if !strings.Contains(ee.Msg, "needs an axis argument") {
		t.Fatalf("expected the missing axis to be reported, got %q", ee.Msg)
	}

	if _, err := env.Eval("x.sum(5)"); !errors.Is(err, daphne.ErrInvalidArgument) {
		t.Fatalf("expected the bad axis to carry ErrInvalidArgument, got %v", err)
	}

	ee = evalError(t, env, "x.bin(4, 1.0)")
	if !strings.Contains(ee.Msg, "numBins") {
		t.Fatalf("expected the bin arity to be rejected, got %q", ee.Msg)
	}

	ee = evalError(t, env, "x.abs(1)")
	if !strings.Contains(ee.Msg, "wrong argument count") {
		t.Fatalf("expected the extra argument to be rejected, got %q", ee.Msg)
	}

	ee = evalError(t, env, "x.frobnicate()")
	if !strings.Contains(ee.Msg, `no method "frobnicate"`) {
		t.Fatalf("expected the unknown method to be reported, got %q", ee.Msg)
	}

	ee = evalError(t, env, "x.cbind(1)")
	if !strings.Contains(ee.Msg, "must be a matrix") {
		t.Fatalf("expected the literal cbind operand to be rejected, got %q", ee.Msg)
	}
}

func TestEvalIndexing(t *testing.T) {
	env := matrixEnv(t)

	got := scriptOf(t, mustEval(t, env, "x[0:2, :]"))
	if !strings.Contains(got, "V1 = V0[0:2, :];") {
		t.Fatalf("expected the sliced read, got:\n%s", got)
	}

	got = scriptOf(t, mustEval(t, env, "x[1, y]"))
	if !strings.Contains(got, "[1, V1];") {
		t.Fatalf("expected the matrix column selection, got:\n%s", got)
	}

	ee := evalError(t, env, "x[1.5, 0]")
	if !strings.Contains(ee.Msg, "index positions must be integers") {
		t.Fatalf("expected the float index to be rejected, got %q", ee.Msg)
	}

	ee = evalError(t, env, `"s"[0, 0]`)
	if !strings.Contains(ee.Msg, "only matrices can be indexed") {
		t.Fatalf("expected the string index to be rejected, got %q", ee.Msg)
	}
}

func TestEvalCalls(t *testing.T) {
	env := newTestEnv(t)

	v := mustEval(t, env, "fill(3.0, 2, 2)")
	if got := scriptOf(t, v); got != "V0 = fill(3.0, 2, 2);\n" {
		t.Fatalf("unexpected fill script: %q", got)
	}

	v = mustEval(t, env, "rand(2, 3, 0.0, 1.0, 1.0, 7)")
	if _, ok := v.(*daphne.Matrix); !ok {
		t.Fatalf("expected rand to give a matrix, got %T", v)
	}

	v = mustEval(t, env, "sample(10, 100, true, 7)")
	if got := scriptOf(t, v); !strings.Contains(got, "withReplacement=true") {
		t.Fatalf("expected the named argument, got:\n%s", got)
	}

	if got := scriptOf(t, mustEval(t, env, "scalar(2)")); got != "V0 = 2;\n" {
		t.Fatalf("expected an integer scalar, got %q", got)
	}
	if got := scriptOf(t, mustEval(t, env, "scalar(2.5)")); got != "V0 = 2.5;\n" {
		t.Fatalf("expected a float scalar, got %q", got)
	}

	ee := evalError(t, env, "read()")
	if !strings.Contains(ee.Msg, "wrong argument count") {
		t.Fatalf("expected the empty read to be rejected, got %q", ee.Msg)
	}

	ee = evalError(t, env, `fill("a", 2, 2)`)
	if !strings.Contains(ee.Msg, "argument 1 must be a number") {
		t.Fatalf("expected the string fill value to be rejected, got %q", ee.Msg)
	}

	ee = evalError(t, env, "nope(1)")
	if !strings.Contains(ee.Msg, `unknown function "nope"`) {
		t.Fatalf("expected the unknown function to be reported, got %q", ee.Msg)
	}
}

func TestEvalFrames(t *testing.T) {
	env := newTestEnv(t)
	env.Define("f", env.Context().ReadFrame("f.csv"))
	env.Define("g", env.Context().ReadFrame("g.csv"))

	if _, ok := mustEval(t, env, "f.nrow()").(*daphne.Scalar); !ok {
		t.Fatalf("expected nrow to give a scalar")
	}
	if _, ok := mustEval(t, env, `f.innerJoin(g, "id", "id")`).(*daphne.Frame); !ok {
		t.Fatalf("expected innerJoin to give a frame")
	}
	if _, ok := mustEval(t, env, "f.toMatrix()").(*daphne.Matrix); !ok {
		t.Fatalf("expected toMatrix to give a matrix")
	}

	ee := evalError(t, env, "f + 1")
	if !strings.Contains(ee.Msg, "method calls, not operators") {
		t.Fatalf("expected frame operators to be rejected, got %q", ee.Msg)
	}
}

func TestEvalUndefinedName(t *testing.T) {
	env := newTestEnv(t)
	ee := evalError(t, env, "nope + 1")
	if ee.Phase != "eval" {
		t.Fatalf("expected eval phase, got %q", ee.Phase)
	}
	if !strings.Contains(ee.Msg, `undefined name "nope"`) {
		t.Fatalf("expected the undefined name, got %q", ee.Msg)
	}
	if ee.Line != 1 || ee.Col != 1 {
		t.Fatalf("error at %d:%d, expected 1:1", ee.Line, ee.Col)
	}
}

func TestEvalLineBindings(t *testing.T) {
	env := newTestEnv(t)

	name, v, err := env.EvalLine("let x = fill(1.0, 2, 2)")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if name != "x" {
		t.Fatalf("expected binding to x, got %q", name)
	}
	first, ok := v.(*daphne.Matrix)
	if !ok {
		t.Fatalf("expected a matrix, got %T", v)
	}

	name, v, err = env.EvalLine("x = x.abs()")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if name != "x" {
		t.Fatalf("expected rebinding of x, got %q", name)
	}
	second, ok := v.(*daphne.Matrix)
	if !ok || second == first {
		t.Fatalf("expected a fresh matrix after rebinding")
	}
	if bound, _ := env.Lookup("x"); bound != Value(second) {
		t.Fatalf("expected the environment to hold the rebound value")
	}

	name, v, err = env.EvalLine("x.sum()")
	if err != nil {
		t.Fatalf("EvalLine: %v", err)
	}
	if name != "" {
		t.Fatalf("expected a bare expression, got binding to %q", name)
	}
	if _, ok := v.(*daphne.Scalar); !ok {
		t.Fatalf("expected a scalar, got %T", v)
	}

	env.Define("b", int64(1))
	env.Define("a", int64(2))
	names := env.Names()
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "x" {
		t.Fatalf("expected sorted names [a b x], got %v", names)
	}
}

func TestEvalScalarLiftErrors(t *testing.T) {
	env := matrixEnv(t)
	ee := evalError(t, env, `"a" + x.sum()`)
	if !strings.Contains(ee.Msg, "cannot be lifted to a scalar") {
		t.Fatalf("expected the string lift to fail, got %q", ee.Msg)
	}

	ee = evalError(t, env, `"a" + 1`)
	if !strings.Contains(ee.Msg, "not defined for string") {
		t.Fatalf("expected the string arithmetic to fail, got %q", ee.Msg)
	}
}
