package mat

import (
	"errors"
	"reflect"
	"testing"
)

func TestValueTypeOf(t *testing.T) {
	cases := []struct {
		kind reflect.Kind
		want ValueType
	}{
		{reflect.Float32, F32},
		{reflect.Float64, F64},
		{reflect.Int16, SI16},
		{reflect.Int32, SI32},
		{reflect.Int64, SI64},
		{reflect.Int, SI64},
		{reflect.Uint8, UI8},
		{reflect.Uint16, UI16},
		{reflect.Uint32, UI32},
		{reflect.Uint64, UI64},
		{reflect.String, Str},
		{reflect.Struct, Object},
		{reflect.Bool, Object},
	}
	for _, c := range cases {
		if got := ValueTypeOf(c.kind); got != c.want {
			t.Errorf("ValueTypeOf(%v) = %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestHostKind(t *testing.T) {
	k, err := F64.HostKind()
	if err != nil || k != reflect.Float64 {
		t.Fatalf("F64.HostKind() = %v, %v", k, err)
	}
	k, err = UI8.HostKind()
	if err != nil || k != reflect.Uint8 {
		t.Fatalf("UI8.HostKind() = %v, %v", k, err)
	}

	for _, vt := range []ValueType{Str, Object, ValueType("bogus")} {
		if _, err := vt.HostKind(); !errors.Is(err, ErrUnknownValueType) {
			t.Errorf("%q.HostKind() error = %v, want ErrUnknownValueType", vt, err)
		}
	}
}

func TestParse(t *testing.T) {
	for _, tag := range []string{"f32", "f64", "si8", "si16", "si32", "si64", "ui8", "ui16", "ui32", "ui64", "str", "object"} {
		if _, err := Parse(tag); err != nil {
			t.Errorf("Parse(%q): %v", tag, err)
		}
	}
	if _, err := Parse("float64"); !errors.Is(err, ErrUnknownValueType) {
		t.Fatalf("Parse(float64) error = %v, want ErrUnknownValueType", err)
	}
}

func TestWireCodes(t *testing.T) {
	for _, vt := range []ValueType{F32, F64, SI8, SI16, SI32, SI64, UI8, UI16, UI32, UI64} {
		c, err := vt.Code()
		if err != nil {
			t.Fatalf("%q.Code(): %v", vt, err)
		}
		back, err := FromCode(c)
		if err != nil || back != vt {
			t.Fatalf("FromCode(%d) = %q, %v; want %q", c, back, err, vt)
		}
	}
	if _, err := Str.Code(); !errors.Is(err, ErrUnknownValueType) {
		t.Fatal("Str must have no wire code")
	}
	if _, err := FromCode(0); !errors.Is(err, ErrUnknownValueType) {
		t.Fatal("code 0 must not map")
	}
}

func TestSize(t *testing.T) {
	cases := map[ValueType]int{
		UI8: 1, SI8: 1,
		SI16: 2, UI16: 2,
		F32: 4, SI32: 4, UI32: 4,
		F64: 8, SI64: 8, UI64: 8,
		Str: 0, Object: 0,
	}
	for vt, want := range cases {
		if got := vt.Size(); got != want {
			t.Errorf("%q.Size() = %d, want %d", vt, got, want)
		}
	}
}
