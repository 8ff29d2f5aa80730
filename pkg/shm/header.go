package shm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/irhox/daphne/pkg/mat"
)

// Matrix segments carry a fixed little-endian header followed by the
// row-major element payload:
//
//	offset 0   magic "DMR1"
//	offset 4   value-type wire code (1 byte)
//	offset 5   zero padding (3 bytes)
//	offset 8   rows (uint64)
//	offset 16  cols (uint64)
//	offset 24  payload
const (
	Magic      = "DMR1"
	HeaderSize = 24
)

// Header describes the matrix stored in a segment.
type Header struct {
	ValueType mat.ValueType
	Rows      uint64
	Cols      uint64
}

// PayloadSize returns the byte length of the element payload.
func (h Header) PayloadSize() (int, error) {
	es := h.ValueType.Size()
	if es == 0 {
		return 0, fmt.Errorf("shm: %w: %q is not numeric", mat.ErrUnknownValueType, h.ValueType)
	}
	return es * int(h.Rows) * int(h.Cols), nil
}

// SizeFor returns the total segment size needed for a matrix of the given
// shape and value type.
func SizeFor(h Header) (int, error) {
	n, err := h.PayloadSize()
	if err != nil {
		return 0, err
	}
	return HeaderSize + n, nil
}

// PutHeader writes the header into the first HeaderSize bytes of b.
func PutHeader(b []byte, h Header) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("shm: buffer too short for header: %d bytes", len(b))
	}
	code, err := h.ValueType.Code()
	if err != nil {
		return err
	}
	copy(b[0:4], Magic)
	b[4] = code
	b[5], b[6], b[7] = 0, 0, 0
	binary.LittleEndian.PutUint64(b[8:16], h.Rows)
	binary.LittleEndian.PutUint64(b[16:24], h.Cols)
	return nil
}

// ParseHeader reads and validates the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("shm: segment too short for header: %d bytes", len(b))
	}
	if string(b[0:4]) != Magic {
		return Header{}, fmt.Errorf("shm: bad magic %q", b[0:4])
	}
	vt, err := mat.FromCode(b[4])
	if err != nil {
		return Header{}, err
	}
	return Header{
		ValueType: vt,
		Rows:      binary.LittleEndian.Uint64(b[8:16]),
		Cols:      binary.LittleEndian.Uint64(b[16:24]),
	}, nil
}

// WriteMatrix stages a dense matrix into a segment: header plus row-major
// elements encoded at the matrix's declared value type. The segment must be
// at least SizeFor the matrix shape.
func WriteMatrix(seg *Segment, d *mat.Dense) error {
	h := Header{ValueType: d.ValueType(), Rows: uint64(d.Rows()), Cols: uint64(d.Cols())}
	need, err := SizeFor(h)
	if err != nil {
		return err
	}
	b := seg.Bytes()
	if len(b) < need {
		return fmt.Errorf("shm: segment %s holds %d bytes, need %d", seg.Name(), len(b), need)
	}
	if err := PutHeader(b, h); err != nil {
		return err
	}
	encodeElems(b[HeaderSize:need], d.Data(), d.ValueType())
	return nil
}

// ReadMatrix parses a result segment back into a dense matrix. Mis-sized
// segments and unknown value-type codes fail.
func ReadMatrix(seg *Segment) (*mat.Dense, error) {
	b := seg.Bytes()
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	need, err := SizeFor(h)
	if err != nil {
		return nil, err
	}
	if len(b) < need {
		return nil, fmt.Errorf("shm: segment %s holds %d bytes, need %d", seg.Name(), len(b), need)
	}
	data := make([]float64, int(h.Rows)*int(h.Cols))
	decodeElems(data, b[HeaderSize:need], h.ValueType)
	return mat.FromSlice(int(h.Rows), int(h.Cols), data, h.ValueType)
}

func encodeElems(dst []byte, src []float64, vt mat.ValueType) {
	es := vt.Size()
	for i, v := range src {
		off := i * es
		switch vt {
		case mat.F32:
			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(float32(v)))
		case mat.F64:
			binary.LittleEndian.PutUint64(dst[off:], math.Float64bits(v))
		case mat.SI8:
			dst[off] = byte(int8(v))
		case mat.UI8:
			dst[off] = byte(uint8(v))
		case mat.SI16:
			binary.LittleEndian.PutUint16(dst[off:], uint16(int16(v)))
		case mat.UI16:
			binary.LittleEndian.PutUint16(dst[off:], uint16(v))
		case mat.SI32:
			binary.LittleEndian.PutUint32(dst[off:], uint32(int32(v)))
		case mat.UI32:
			binary.LittleEndian.PutUint32(dst[off:], uint32(v))
		case mat.SI64:
			binary.LittleEndian.PutUint64(dst[off:], uint64(int64(v)))
		case mat.UI64:
			binary.LittleEndian.PutUint64(dst[off:], uint64(v))
		}
	}
}

func decodeElems(dst []float64, src []byte, vt mat.ValueType) {
	es := vt.Size()
	for i := range dst {
		off := i * es
		switch vt {
		case mat.F32:
			dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(src[off:])))
		case mat.F64:
			dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[off:]))
		case mat.SI8:
			dst[i] = float64(int8(src[off]))
		case mat.UI8:
			dst[i] = float64(src[off])
		case mat.SI16:
			dst[i] = float64(int16(binary.LittleEndian.Uint16(src[off:])))
		case mat.UI16:
			dst[i] = float64(binary.LittleEndian.Uint16(src[off:]))
		case mat.SI32:
			dst[i] = float64(int32(binary.LittleEndian.Uint32(src[off:])))
		case mat.UI32:
			dst[i] = float64(binary.LittleEndian.Uint32(src[off:]))
		case mat.SI64:
			dst[i] = float64(int64(binary.LittleEndian.Uint64(src[off:])))
		case mat.UI64:
			dst[i] = float64(binary.LittleEndian.Uint64(src[off:]))
		}
	}
}
