package mat

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ColumnValueType maps an Arrow column type to its engine tag. Unmapped
// types degrade to Object, string types to Str, mirroring ValueTypeOf.
func ColumnValueType(dt arrow.DataType) ValueType {
	switch dt.ID() {
	case arrow.FLOAT32:
		return F32
	case arrow.FLOAT64:
		return F64
	case arrow.INT8:
		return SI8
	case arrow.INT16:
		return SI16
	case arrow.INT32:
		return SI32
	case arrow.INT64:
		return SI64
	case arrow.UINT8:
		return UI8
	case arrow.UINT16:
		return UI16
	case arrow.UINT32:
		return UI32
	case arrow.UINT64:
		return UI64
	case arrow.STRING, arrow.LARGE_STRING:
		return Str
	default:
		return Object
	}
}

// ToRecord converts a dense matrix into an Arrow record with one float64
// column per matrix column. labels may be nil, in which case columns are
// named c0..cN-1. The caller owns the returned record and must Release it.
func ToRecord(d *Dense, labels []string) (arrow.Record, error) {
	if labels == nil {
		labels = make([]string, d.cols)
		for j := range labels {
			labels[j] = fmt.Sprintf("c%d", j)
		}
	}
	if len(labels) != d.cols {
		return nil, fmt.Errorf("mat: %d labels for %d columns", len(labels), d.cols)
	}

	fields := make([]arrow.Field, d.cols)
	for j, label := range labels {
		fields[j] = arrow.Field{Name: label, Type: arrow.PrimitiveTypes.Float64}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	for j := 0; j < d.cols; j++ {
		fb := b.Field(j).(*array.Float64Builder)
		for i := 0; i < d.rows; i++ {
			fb.Append(d.data[i*d.cols+j])
		}
	}
	return b.NewRecord(), nil
}

// FromRecord converts a numeric Arrow record into a dense matrix. When all
// columns share one value type the result keeps that tag, otherwise it is
// widened to f64. Non-numeric or null-bearing columns are rejected.
func FromRecord(rec arrow.Record) (*Dense, error) {
	rows := int(rec.NumRows())
	cols := int(rec.NumCols())
	d := New(rows, cols, F64)

	uniform := ValueType("")
	for j := 0; j < cols; j++ {
		vals, vt, err := columnFloats(rec.Column(j))
		if err != nil {
			return nil, fmt.Errorf("mat: column %q: %w", rec.ColumnName(j), err)
		}
		for i, v := range vals {
			d.data[i*cols+j] = v
		}
		if j == 0 {
			uniform = vt
		} else if vt != uniform {
			uniform = F64
		}
	}
	if cols > 0 {
		d.vt = uniform
	}
	return d, nil
}

// FromColumn converts a single numeric Arrow array into an N×1 matrix.
func FromColumn(col arrow.Array) (*Dense, error) {
	vals, vt, err := columnFloats(col)
	if err != nil {
		return nil, fmt.Errorf("mat: %w", err)
	}
	d, _ := FromSlice(len(vals), 1, vals, vt)
	return d, nil
}

func columnFloats(col arrow.Array) ([]float64, ValueType, error) {
	if col.NullN() > 0 {
		return nil, "", fmt.Errorf("column holds %d nulls", col.NullN())
	}
	n := col.Len()
	vals := make([]float64, n)
	switch c := col.(type) {
	case *array.Float64:
		copy(vals, c.Float64Values())
		return vals, F64, nil
	case *array.Float32:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, F32, nil
	case *array.Int8:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, SI8, nil
	case *array.Int16:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, SI16, nil
	case *array.Int32:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, SI32, nil
	case *array.Int64:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, SI64, nil
	case *array.Uint8:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, UI8, nil
	case *array.Uint16:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, UI16, nil
	case *array.Uint32:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, UI32, nil
	case *array.Uint64:
		for i := 0; i < n; i++ {
			vals[i] = float64(c.Value(i))
		}
		return vals, UI64, nil
	default:
		return nil, "", fmt.Errorf("%w: arrow type %s", ErrUnknownValueType, col.DataType())
	}
}
