package daphne

import (
	"errors"
	"strings"
	"testing"

	"github.com/irhox/daphne/pkg/mat"
)

func TestSetSlicePreservesEarlierConsumers(t *testing.T) {
	c := newTestContext(t)
	a := c.ReadMatrix("a.csv")
	before := a.Add(Num(1))

	if err := a.SetSlice(Pos(0), Pos(0), Num(5)); err != nil {
		t.Fatalf("SetSlice: %v", err)
	}
	after := a.Add(Num(2))

	s1, err1 := before.Script()
	gotBefore := mustScript(t, s1, err1)
	wantBefore := "V0 = readMatrix(\"a.csv\");\nV1 = V0 + 1.0;\n"
	if gotBefore != wantBefore {
		t.Fatalf("pre-assignment consumer changed:\ngot:\n%swant:\n%s", gotBefore, wantBefore)
	}

	s2, err2 := after.Script()
	gotAfter := mustScript(t, s2, err2)
	wantAfter := "V0 = readMatrix(\"a.csv\");\nV0[0, 0] = 5.0;\nV1 = V0;\nV2 = V1 + 2.0;\n"
	if gotAfter != wantAfter {
		t.Fatalf("post-assignment consumer wrong:\ngot:\n%swant:\n%s", gotAfter, wantAfter)
	}
}

func TestSetSliceChains(t *testing.T) {
	c := newTestContext(t)
	a := c.ReadMatrix("a.csv")

	if err := a.SetSlice(Pos(0), Pos(0), Num(5)); err != nil {
		t.Fatalf("first SetSlice: %v", err)
	}
	if err := a.SetSlice(Pos(1), Range(0, 2), Num(6)); err != nil {
		t.Fatalf("second SetSlice: %v", err)
	}

	s3, err3 := a.Sum().Script()
	got := mustScript(t, s3, err3)
	want := "V0 = readMatrix(\"a.csv\");\n" +
		"V0[0, 0] = 5.0;\nV1 = V0;\n" +
		"V1[1, 0:2] = 6.0;\nV2 = V1;\n" +
		"V3 = sum(V2);\n"
	if got != want {
		t.Fatalf("chained writes wrong:\ngot:\n%swant:\n%s", got, want)
	}
}

func TestSetSliceNodeValue(t *testing.T) {
	c := newTestContext(t)
	a := c.ReadMatrix("a.csv")
	v := c.Fill(9, 1, 1)

	if err := a.SetSlice(Pos(2), Pos(3), v); err != nil {
		t.Fatalf("SetSlice: %v", err)
	}
	s4, err4 := a.Script()
	got := mustScript(t, s4, err4)
	want := "V0 = readMatrix(\"a.csv\");\nV1 = fill(9.0, 1, 1);\nV0[2, 3] = V1;\nV2 = V0;\n"
	if got != want {
		t.Fatalf("node-valued write wrong:\ngot:\n%swant:\n%s", got, want)
	}
}

func TestSetSliceKeyValidation(t *testing.T) {
	c := newTestContext(t)
	a := c.ReadMatrix("a.csv")
	pick := c.ReadMatrix("idx.csv")

	if err := a.SetSlice(Sel(pick), Pos(0), Num(1)); !errors.Is(err, ErrIndexKey) {
		t.Fatalf("expected matrix key rejection, got %v", err)
	}
	if err := a.SetSlice(Idx{}, Pos(0), Num(1)); !errors.Is(err, ErrIndexKey) {
		t.Fatalf("expected zero index rejection, got %v", err)
	}

	// Failed validation must leave the node untouched.
	s5, err5 := a.Script()
	got := mustScript(t, s5, err5)
	if got != "V0 = readMatrix(\"a.csv\");\n" {
		t.Fatalf("node mutated by failed SetSlice:\n%s", got)
	}
}

func TestSetSliceSharesPayloadWithShadow(t *testing.T) {
	c := newTestContext(t)
	d := mustDense(t, 2, 2, mat.F64, []float64{1, 2, 3, 4})
	a, err := c.FromDense(d)
	if err != nil {
		t.Fatalf("FromDense: %v", err)
	}

	if err := a.SetSlice(Pos(0), Pos(0), Num(7)); err != nil {
		t.Fatalf("SetSlice: %v", err)
	}

	shadow := a.n.inputs[0].node
	if shadow == nil {
		t.Fatal("write node lost its shadow input")
	}
	if shadow.payload != d {
		t.Fatal("shadow must share the payload pointer, not copy it")
	}
	if a.n.payload != nil {
		t.Fatal("rewritten handle must not keep the payload")
	}
}

func TestSetSliceRetargetsAllUses(t *testing.T) {
	c := newTestContext(t)
	a := c.ReadMatrix("a.csv")
	// The consumer uses a twice; both edges must retarget together.
	twice := a.Add(a)

	if err := a.SetSlice(Pos(0), Pos(0), Num(1)); err != nil {
		t.Fatalf("SetSlice: %v", err)
	}

	s6, err6 := twice.Script()
	got := mustScript(t, s6, err6)
	want := "V0 = readMatrix(\"a.csv\");\nV1 = V0 + V0;\n"
	if got != want {
		t.Fatalf("double-edge consumer wrong:\ngot:\n%swant:\n%s", got, want)
	}
	if strings.Contains(got, "[0, 0]") {
		t.Fatalf("pre-assignment consumer observed the write:\n%s", got)
	}
}

func TestSliceAfterWriteSeesNewValue(t *testing.T) {
	c := newTestContext(t)
	a := c.ReadMatrix("a.csv")
	if err := a.SetSlice(Pos(0), Pos(0), Num(5)); err != nil {
		t.Fatalf("SetSlice: %v", err)
	}
	rd, err := a.Slice(Pos(0), Pos(0))
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	s7, err7 := rd.Script()
	got := mustScript(t, s7, err7)
	want := "V0 = readMatrix(\"a.csv\");\nV0[0, 0] = 5.0;\nV1 = V0;\nV2 = V1[0, 0];\n"
	if got != want {
		t.Fatalf("read-after-write wrong:\ngot:\n%swant:\n%s", got, want)
	}
}
