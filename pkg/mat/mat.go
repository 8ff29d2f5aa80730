// Package mat provides the dense host-side matrix container exchanged with
// the compute engine, the value-type tag vocabulary, and the Arrow bridge.
package mat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dense is a row-major dense matrix of float64 storage. The value type
// records the declared element kind, which may be narrower than float64
// (e.g. a ui8 pixel matrix); it controls the tag written to metadata
// sidecars and shared-memory headers, not the in-memory representation.
type Dense struct {
	rows, cols int
	data       []float64
	vt         ValueType
}

// New returns a zeroed rows×cols matrix. Panics if either dimension is
// negative or the product overflows.
func New(rows, cols int, vt ValueType) *Dense {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("mat: negative dimension %dx%d", rows, cols))
	}
	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols), vt: vt}
}

// FromSlice wraps an existing row-major slice. The slice is used directly,
// not copied.
func FromSlice(rows, cols int, data []float64, vt ValueType) (*Dense, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("mat: negative dimension %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("mat: data length %d does not match %dx%d", len(data), rows, cols)
	}
	return &Dense{rows: rows, cols: cols, data: data, vt: vt}, nil
}

func (d *Dense) Rows() int            { return d.rows }
func (d *Dense) Cols() int            { return d.cols }
func (d *Dense) ValueType() ValueType { return d.vt }

// Data returns the backing row-major slice. Mutations are visible to the
// matrix.
func (d *Dense) Data() []float64 { return d.data }

func (d *Dense) check(i, j int) {
	if i < 0 || i >= d.rows || j < 0 || j >= d.cols {
		panic(fmt.Sprintf("mat: index (%d,%d) out of range %dx%d", i, j, d.rows, d.cols))
	}
}

// At returns the element at row i, column j. Panics when out of range.
func (d *Dense) At(i, j int) float64 {
	d.check(i, j)
	return d.data[i*d.cols+j]
}

// Set stores v at row i, column j. Panics when out of range.
func (d *Dense) Set(i, j int, v float64) {
	d.check(i, j)
	d.data[i*d.cols+j] = v
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	data := make([]float64, len(d.data))
	copy(data, d.data)
	return &Dense{rows: d.rows, cols: d.cols, data: data, vt: d.vt}
}

// Equal reports exact equality of shape, value type, and elements.
func (d *Dense) Equal(other *Dense) bool {
	if other == nil || d.rows != other.rows || d.cols != other.cols || d.vt != other.vt {
		return false
	}
	for i, v := range d.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}

// String renders a compact shape/type summary, not the elements.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%dx%d %s)", d.rows, d.cols, d.vt)
}

// FormatElem renders one element the way staged CSV files and emitted
// script literals expect: shortest text that round-trips to the same
// float64, so integral values carry no decimal point.
func FormatElem(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the matrix as comma-delimited text, one row per line, no
// header. This is the numeric staging wire format.
func (d *Dense) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < d.rows; i++ {
		for j := 0; j < d.cols; j++ {
			if j > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(FormatElem(d.data[i*d.cols+j])); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCSV parses comma-delimited text with a declared shape and value type,
// the inverse of WriteCSV. Shape mismatches and unparsable elements are
// reported with their row number.
func ReadCSV(r io.Reader, rows, cols int, vt ValueType) (*Dense, error) {
	d := New(rows, cols, vt)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	row := 0
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if row >= rows {
			return nil, fmt.Errorf("mat: csv has more than %d rows", rows)
		}
		fields := strings.Split(line, ",")
		if len(fields) != cols {
			return nil, fmt.Errorf("mat: csv row %d has %d columns, want %d", row, len(fields), cols)
		}
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("mat: csv row %d column %d: %w", row, j, err)
			}
			d.data[row*cols+j] = v
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if row != rows {
		return nil, fmt.Errorf("mat: csv has %d rows, want %d", row, rows)
	}
	return d, nil
}
