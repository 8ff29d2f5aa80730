package mat

import (
	"strings"
	"testing"
)

func mustDense(t *testing.T, rows, cols int, data []float64, vt ValueType) *Dense {
	t.Helper()
	d, err := FromSlice(rows, cols, data, vt)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return d
}

func TestFromSliceValidation(t *testing.T) {
	if _, err := FromSlice(2, 2, []float64{1, 2, 3}, F64); err == nil {
		t.Fatal("expected error for mismatched data length")
	}
	if _, err := FromSlice(-1, 2, nil, F64); err == nil {
		t.Fatal("expected error for negative dimension")
	}
}

func TestAtSet(t *testing.T) {
	d := New(2, 3, F64)
	d.Set(1, 2, 7.5)
	if got := d.At(1, 2); got != 7.5 {
		t.Fatalf("At(1,2) = %v, want 7.5", got)
	}
	if got := d.At(0, 0); got != 0 {
		t.Fatalf("At(0,0) = %v, want 0", got)
	}
}

func TestFormatElem(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{0.5, "0.5"},
		{-2.25, "-2.25"},
		{1e21, "1e+21"},
	}
	for _, c := range cases {
		if got := FormatElem(c.in); got != c.want {
			t.Errorf("FormatElem(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCSVRoundTrip(t *testing.T) {
	d := mustDense(t, 2, 3, []float64{1, 2.5, -3, 0, 7, 0.125}, F64)

	var sb strings.Builder
	if err := d.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "1,2.5,-3\n0,7,0.125\n"
	if sb.String() != want {
		t.Fatalf("csv text = %q, want %q", sb.String(), want)
	}

	back, err := ReadCSV(strings.NewReader(sb.String()), 2, 3, F64)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !d.Equal(back) {
		t.Fatalf("round trip mismatch: %v vs %v", d.Data(), back.Data())
	}
}

func TestCSVRoundTripIntegerKinds(t *testing.T) {
	d := mustDense(t, 2, 2, []float64{0, 128, 255, 7}, UI8)

	var sb strings.Builder
	if err := d.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if want := "0,128\n255,7\n"; sb.String() != want {
		t.Fatalf("csv text = %q, want %q", sb.String(), want)
	}

	back, err := ReadCSV(strings.NewReader(sb.String()), 2, 2, UI8)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if !d.Equal(back) {
		t.Fatal("round trip mismatch")
	}
}

func TestReadCSVErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		rows int
		cols int
	}{
		{"wrong column count", "1,2\n3\n", 2, 2},
		{"bad number", "1,x\n3,4\n", 2, 2},
		{"too few rows", "1,2\n", 2, 2},
		{"too many rows", "1,2\n3,4\n5,6\n", 2, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(c.text), c.rows, c.cols, F64); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := mustDense(t, 1, 2, []float64{1, 2}, F64)
	c := d.Clone()
	c.Set(0, 0, 99)
	if d.At(0, 0) != 1 {
		t.Fatal("Clone shares backing data")
	}
	if !d.Equal(mustDense(t, 1, 2, []float64{1, 2}, F64)) {
		t.Fatal("original changed")
	}
}
