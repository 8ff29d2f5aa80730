package shm

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/irhox/daphne/pkg/mat"
)

func testName(t *testing.T, tag string) string {
	t.Helper()
	return fmt.Sprintf("daphne_test_%d_%s", os.Getpid(), tag)
}

func TestHeaderRoundTrip(t *testing.T) {
	b := make([]byte, HeaderSize)
	in := Header{ValueType: mat.F64, Rows: 3, Cols: 7}
	if err := PutHeader(b, in); err != nil {
		t.Fatalf("PutHeader: %v", err)
	}
	out, err := ParseHeader(b)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if out != in {
		t.Fatalf("header round trip: got %+v, want %+v", out, in)
	}
}

func TestHeaderErrors(t *testing.T) {
	t.Run("short buffer", func(t *testing.T) {
		if err := PutHeader(make([]byte, 8), Header{ValueType: mat.F64}); err == nil {
			t.Fatal("expected error")
		}
		if _, err := ParseHeader(make([]byte, 8)); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("bad magic", func(t *testing.T) {
		b := make([]byte, HeaderSize)
		if err := PutHeader(b, Header{ValueType: mat.F64, Rows: 1, Cols: 1}); err != nil {
			t.Fatalf("PutHeader: %v", err)
		}
		b[0] = 'X'
		if _, err := ParseHeader(b); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("non numeric value type", func(t *testing.T) {
		if err := PutHeader(make([]byte, HeaderSize), Header{ValueType: mat.Str, Rows: 1, Cols: 1}); !errors.Is(err, mat.ErrUnknownValueType) {
			t.Fatalf("error = %v, want ErrUnknownValueType", err)
		}
	})
	t.Run("unknown code", func(t *testing.T) {
		b := make([]byte, HeaderSize)
		copy(b, Magic)
		b[4] = 99
		if _, err := ParseHeader(b); !errors.Is(err, mat.ErrUnknownValueType) {
			t.Fatalf("error = %v, want ErrUnknownValueType", err)
		}
	})
}

func TestSegmentMatrixRoundTrip(t *testing.T) {
	if !Available() {
		t.Skip("no shared-memory filesystem on this host")
	}

	d, err := mat.FromSlice(2, 2, []float64{1.5, -2, 3, 4.25}, mat.F64)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	name := testName(t, "roundtrip")
	size, err := SizeFor(Header{ValueType: d.ValueType(), Rows: 2, Cols: 2})
	if err != nil {
		t.Fatalf("SizeFor: %v", err)
	}

	seg, err := Create(name, size)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer seg.Unlink()
	defer seg.Close()

	if err := WriteMatrix(seg, d); err != nil {
		t.Fatalf("WriteMatrix: %v", err)
	}

	reader, err := Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	back, err := ReadMatrix(reader)
	if err != nil {
		t.Fatalf("ReadMatrix: %v", err)
	}
	if !d.Equal(back) {
		t.Fatalf("round trip mismatch: %v vs %v", d.Data(), back.Data())
	}
}

func TestSegmentIntegerEncoding(t *testing.T) {
	if !Available() {
		t.Skip("no shared-memory filesystem on this host")
	}

	d, err := mat.FromSlice(1, 3, []float64{0, 127, 255}, mat.UI8)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	name := testName(t, "ui8")
	seg, err := Create(name, HeaderSize+3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer seg.Unlink()
	defer seg.Close()

	if err := WriteMatrix(seg, d); err != nil {
		t.Fatalf("WriteMatrix: %v", err)
	}
	back, err := ReadMatrix(seg)
	if err != nil {
		t.Fatalf("ReadMatrix: %v", err)
	}
	if !d.Equal(back) {
		t.Fatalf("round trip mismatch: %v vs %v", d.Data(), back.Data())
	}
}

func TestCreateValidation(t *testing.T) {
	if _, err := Create("has/slash", 16); err == nil {
		t.Fatal("expected error for slash in name")
	}
	if _, err := Create("ok", 0); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestCreateExclusive(t *testing.T) {
	if !Available() {
		t.Skip("no shared-memory filesystem on this host")
	}
	name := testName(t, "excl")
	seg, err := Create(name, 16)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer seg.Unlink()
	defer seg.Close()

	if _, err := Create(name, 16); err == nil {
		t.Fatal("second Create with same name must fail")
	}
}

func TestReadMatrixMisSized(t *testing.T) {
	if !Available() {
		t.Skip("no shared-memory filesystem on this host")
	}
	name := testName(t, "missized")
	seg, err := Create(name, HeaderSize+8)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer seg.Unlink()
	defer seg.Close()

	// Header claims a 2x2 f64 payload (32 bytes) but only 8 are mapped.
	if err := PutHeader(seg.Bytes(), Header{ValueType: mat.F64, Rows: 2, Cols: 2}); err != nil {
		t.Fatalf("PutHeader: %v", err)
	}
	if _, err := ReadMatrix(seg); err == nil {
		t.Fatal("expected error for mis-sized segment")
	}
}
