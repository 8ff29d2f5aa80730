package mat

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownValueType is returned when a value-type tag cannot be mapped
// back to a host kind, or when a tag is not part of the engine vocabulary.
var ErrUnknownValueType = errors.New("unknown value type")

// ValueType is the engine's string tag for an element kind. It appears in
// metadata sidecars, cast operator names, and shared-memory headers.
type ValueType string

const (
	F32    ValueType = "f32"
	F64    ValueType = "f64"
	SI8    ValueType = "si8"
	SI16   ValueType = "si16"
	SI32   ValueType = "si32"
	SI64   ValueType = "si64"
	UI8    ValueType = "ui8"
	UI16   ValueType = "ui16"
	UI32   ValueType = "ui32"
	UI64   ValueType = "ui64"
	Str    ValueType = "str"
	Object ValueType = "object"
)

// valueTypes is the fixed engine vocabulary.
var valueTypes = map[ValueType]struct{}{
	F32: {}, F64: {},
	SI8: {}, SI16: {}, SI32: {}, SI64: {},
	UI8: {}, UI16: {}, UI32: {}, UI64: {},
	Str: {}, Object: {},
}

// kindToValueType is the forward mapping from host element kinds.
var kindToValueType = map[reflect.Kind]ValueType{
	reflect.Float32: F32,
	reflect.Float64: F64,
	reflect.Int8:    SI8,
	reflect.Int16:   SI16,
	reflect.Int32:   SI32,
	reflect.Int64:   SI64,
	reflect.Int:     SI64,
	reflect.Uint8:   UI8,
	reflect.Uint16:  UI16,
	reflect.Uint32:  UI32,
	reflect.Uint64:  UI64,
	reflect.Uint:    UI64,
	reflect.String:  Str,
}

// valueTypeToKind is the reverse mapping. Str and Object have no host
// numeric kind and are deliberately absent.
var valueTypeToKind = map[ValueType]reflect.Kind{
	F32:  reflect.Float32,
	F64:  reflect.Float64,
	SI8:  reflect.Int8,
	SI16: reflect.Int16,
	SI32: reflect.Int32,
	SI64: reflect.Int64,
	UI8:  reflect.Uint8,
	UI16: reflect.Uint16,
	UI32: reflect.Uint32,
	UI64: reflect.Uint64,
}

// ValueTypeOf maps a host element kind to its engine tag. Kinds without an
// entry degrade to Object rather than failing; string kinds map to Str.
func ValueTypeOf(k reflect.Kind) ValueType {
	if vt, ok := kindToValueType[k]; ok {
		return vt
	}
	return Object
}

// HostKind maps the tag back to a host numeric kind. Unlike the forward
// direction there is no graceful fallback: an unmapped tag is an error.
func (v ValueType) HostKind() (reflect.Kind, error) {
	k, ok := valueTypeToKind[v]
	if !ok {
		return reflect.Invalid, fmt.Errorf("%w: %q has no host kind", ErrUnknownValueType, string(v))
	}
	return k, nil
}

// Parse checks a tag against the engine vocabulary.
func Parse(tag string) (ValueType, error) {
	vt := ValueType(tag)
	if _, ok := valueTypes[vt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownValueType, tag)
	}
	return vt, nil
}

// Numeric reports whether the tag names a numeric element kind.
func (v ValueType) Numeric() bool {
	_, ok := valueTypeToKind[v]
	return ok
}

// Size returns the element width in bytes, or 0 for non-numeric tags.
func (v ValueType) Size() int {
	switch v {
	case SI8, UI8:
		return 1
	case SI16, UI16:
		return 2
	case F32, SI32, UI32:
		return 4
	case F64, SI64, UI64:
		return 8
	default:
		return 0
	}
}

// Wire codes used in shared-memory result headers.
var codeByValueType = map[ValueType]byte{
	F32: 1, F64: 2,
	SI8: 3, SI16: 4, SI32: 5, SI64: 6,
	UI8: 7, UI16: 8, UI32: 9, UI64: 10,
}

var valueTypeByCode = map[byte]ValueType{}

func init() {
	for vt, c := range codeByValueType {
		valueTypeByCode[c] = vt
	}
}

// Code returns the wire code for a numeric tag.
func (v ValueType) Code() (byte, error) {
	c, ok := codeByValueType[v]
	if !ok {
		return 0, fmt.Errorf("%w: %q has no wire code", ErrUnknownValueType, string(v))
	}
	return c, nil
}

// FromCode maps a wire code back to its tag.
func FromCode(c byte) (ValueType, error) {
	vt, ok := valueTypeByCode[c]
	if !ok {
		return "", fmt.Errorf("%w: wire code %d", ErrUnknownValueType, c)
	}
	return vt, nil
}
