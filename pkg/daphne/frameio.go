package daphne

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/irhox/daphne/pkg/mat"
)

// frameMeta derives the sidecar metadata for a frame record. Column
// labels and value types go into the schema list; there is no single
// top-level value type for frames.
func frameMeta(rec arrow.Record) metaFile {
	m := metaFile{
		NumRows: rec.NumRows(),
		NumCols: rec.NumCols(),
		Schema:  make([]metaColumn, rec.NumCols()),
	}
	for j, f := range rec.Schema().Fields() {
		m.Schema[j] = metaColumn{
			Label:     f.Name,
			ValueType: string(mat.ColumnValueType(f.Type)),
		}
	}
	return m
}

func cellString(col arrow.Array, i int) (string, error) {
	if col.IsNull(i) {
		return "", fmt.Errorf("null cell at row %d", i)
	}
	switch arr := col.(type) {
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(i), 'g', -1, 64), nil
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(i)), 'g', -1, 32), nil
	case *array.Int8:
		return strconv.FormatInt(int64(arr.Value(i)), 10), nil
	case *array.Int16:
		return strconv.FormatInt(int64(arr.Value(i)), 10), nil
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(i)), 10), nil
	case *array.Int64:
		return strconv.FormatInt(arr.Value(i), 10), nil
	case *array.Uint8:
		return strconv.FormatUint(uint64(arr.Value(i)), 10), nil
	case *array.Uint16:
		return strconv.FormatUint(uint64(arr.Value(i)), 10), nil
	case *array.Uint32:
		return strconv.FormatUint(uint64(arr.Value(i)), 10), nil
	case *array.Uint64:
		return strconv.FormatUint(arr.Value(i), 10), nil
	case *array.String:
		return arr.Value(i), nil
	case *array.LargeString:
		return arr.Value(i), nil
	}
	return "", fmt.Errorf("%w: column type %s", mat.ErrUnknownValueType, col.DataType().Name())
}

// writeFrameCSV stages a record as headerless CSV; labels travel in
// the meta sidecar instead.
func writeFrameCSV(path string, rec arrow.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	row := make([]string, rec.NumCols())
	for i := 0; i < int(rec.NumRows()); i++ {
		for j := 0; j < int(rec.NumCols()); j++ {
			cell, err := cellString(rec.Column(j), i)
			if err != nil {
				f.Close()
				return fmt.Errorf("column %d: %w", j, err)
			}
			row[j] = cell
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func arrowType(vt mat.ValueType) (arrow.DataType, error) {
	switch vt {
	case mat.F64:
		return arrow.PrimitiveTypes.Float64, nil
	case mat.F32:
		return arrow.PrimitiveTypes.Float32, nil
	case mat.SI8:
		return arrow.PrimitiveTypes.Int8, nil
	case mat.SI16:
		return arrow.PrimitiveTypes.Int16, nil
	case mat.SI32:
		return arrow.PrimitiveTypes.Int32, nil
	case mat.SI64:
		return arrow.PrimitiveTypes.Int64, nil
	case mat.UI8:
		return arrow.PrimitiveTypes.Uint8, nil
	case mat.UI16:
		return arrow.PrimitiveTypes.Uint16, nil
	case mat.UI32:
		return arrow.PrimitiveTypes.Uint32, nil
	case mat.UI64:
		return arrow.PrimitiveTypes.Uint64, nil
	case mat.Str:
		return arrow.BinaryTypes.String, nil
	}
	return nil, fmt.Errorf("%w: %q", mat.ErrUnknownValueType, vt)
}

func appendCell(fb array.Builder, vt mat.ValueType, cell string) error {
	switch vt {
	case mat.F64:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		fb.(*array.Float64Builder).Append(v)
	case mat.F32:
		v, err := strconv.ParseFloat(cell, 32)
		if err != nil {
			return err
		}
		fb.(*array.Float32Builder).Append(float32(v))
	case mat.SI8, mat.SI16, mat.SI32, mat.SI64:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return err
		}
		switch b := fb.(type) {
		case *array.Int8Builder:
			b.Append(int8(v))
		case *array.Int16Builder:
			b.Append(int16(v))
		case *array.Int32Builder:
			b.Append(int32(v))
		case *array.Int64Builder:
			b.Append(v)
		}
	case mat.UI8, mat.UI16, mat.UI32, mat.UI64:
		v, err := strconv.ParseUint(cell, 10, 64)
		if err != nil {
			return err
		}
		switch b := fb.(type) {
		case *array.Uint8Builder:
			b.Append(uint8(v))
		case *array.Uint16Builder:
			b.Append(uint16(v))
		case *array.Uint32Builder:
			b.Append(uint32(v))
		case *array.Uint64Builder:
			b.Append(v)
		}
	case mat.Str:
		fb.(*array.StringBuilder).Append(cell)
	default:
		return fmt.Errorf("%w: %q", mat.ErrUnknownValueType, vt)
	}
	return nil
}

// readFrameCSV rebuilds an Arrow record from a result CSV and its
// meta. Column types come from the meta schema when present, else
// every column takes the top-level value type.
func readFrameCSV(path string, m metaFile) (arrow.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = int(m.NumCols)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(rows)) != m.NumRows {
		return nil, fmt.Errorf("reading %s: got %d rows, meta says %d", path, len(rows), m.NumRows)
	}

	labels := make([]string, m.NumCols)
	vts := make([]mat.ValueType, m.NumCols)
	for j := range labels {
		if m.Schema != nil {
			labels[j] = m.Schema[j].Label
			vts[j] = mat.ValueType(m.Schema[j].ValueType)
		} else {
			labels[j] = fmt.Sprintf("c%d", j)
			vts[j] = mat.ValueType(m.ValueType)
		}
	}

	fields := make([]arrow.Field, m.NumCols)
	for j := range fields {
		dt, err := arrowType(vts[j])
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", j, err)
		}
		fields[j] = arrow.Field{Name: labels[j], Type: dt}
	}
	b := array.NewRecordBuilder(memory.NewGoAllocator(), arrow.NewSchema(fields, nil))
	defer b.Release()

	for i, row := range rows {
		for j, cell := range row {
			if err := appendCell(b.Field(j), vts[j], cell); err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
		}
	}
	return b.NewRecord(), nil
}
