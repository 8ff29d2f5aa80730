// Package daphne builds lazy operator DAGs over matrices, scalars and
// frames, emits them as engine scripts and materializes results via
// temp files or shared memory.
package daphne

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/irhox/daphne/pkg/mat"
)

var ctxCounter atomic.Int64

// Context owns a DAG-building session: the engine handle, a private
// staging directory and the default transfer mode. A Context and the
// facades built from it are not safe for concurrent use.
type Context struct {
	engine   Engine
	tmpBase  string
	tmpDir   string
	transfer Transfer
	trace    io.Writer
	id       string
	seq      int
}

// NewContext creates a session. The staging directory is created
// immediately so that emitted file paths are stable for the whole
// lifetime; call Close to remove it.
func NewContext(opts ...ContextOption) (*Context, error) {
	c := &Context{
		tmpBase:  os.TempDir(),
		transfer: TransferSharedMemory,
		trace:    io.Discard,
		id:       fmt.Sprintf("%d_%d", os.Getpid(), ctxCounter.Add(1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	dir, err := os.MkdirTemp(c.tmpBase, "daphne-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	c.tmpDir = dir
	return c, nil
}

// TmpDir returns the context's private staging directory.
func (c *Context) TmpDir() string { return c.tmpDir }

// Close removes the staging directory and everything staged into it.
func (c *Context) Close() error {
	if c.tmpDir == "" {
		return nil
	}
	err := os.RemoveAll(c.tmpDir)
	c.tmpDir = ""
	return err
}

func (c *Context) shmKey(varName string) string {
	return fmt.Sprintf("daphne_%s_%s", c.id, varName)
}

// ReadMatrix builds a matrix read from a file already known to the
// engine. The path is passed through untouched.
func (c *Context) ReadMatrix(path string) *Matrix {
	return c.matrixNode("readMatrix", litIns(path))
}

// ReadFrame builds a frame read from a file already known to the engine.
func (c *Context) ReadFrame(path string) *Frame {
	return c.frameNode("readFrame", litIns(path))
}

// FromDense wraps host-resident numeric data. The data is staged only
// when a script using it runs; the *mat.Dense is shared, not copied.
func (c *Context) FromDense(d *mat.Dense) (*Matrix, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidArgument)
	}
	m := c.matrixNode("readMatrix", nil)
	m.n.payload = d
	return m, nil
}

// FromStrings wraps host-resident text data, staged as JSON on use.
// Rows must be rectangular.
func (c *Context) FromStrings(rows [][]string) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidArgument)
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidArgument, i, len(r), width)
		}
	}
	m := c.matrixNode("readMatrix", nil)
	m.n.textPayload = rows
	return m, nil
}

// FromArrow wraps an Arrow record as a lazy frame. The record is
// retained until the context is garbage; callers keep ownership of
// their own reference.
func (c *Context) FromArrow(rec arrow.Record) (*Frame, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidArgument)
	}
	rec.Retain()
	f := c.frameNode("readFrame", nil)
	f.n.framePayload = rec
	return f, nil
}

// FromArrowColumn wraps a single Arrow column as an n-by-1 matrix.
func (c *Context) FromArrowColumn(col arrow.Array) (*Matrix, error) {
	d, err := mat.FromColumn(col)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return c.FromDense(d)
}

// Fill builds a rows-by-cols matrix with every element set to value.
func (c *Context) Fill(value float64, rows, cols int64) *Matrix {
	return c.matrixNode("fill", litIns(value, rows, cols))
}

// Seq builds a column vector running from start to end by inc.
func (c *Context) Seq(start, end, inc float64) *Matrix {
	return c.matrixNode("seq", litIns(start, end, inc))
}

// Rand builds a rows-by-cols random matrix. sparsity is the fraction
// of nonzero cells; seed -1 asks the engine to pick one.
func (c *Context) Rand(rows, cols int64, min, max, sparsity float64, seed int64) *Matrix {
	return c.matrixNode("rand", litIns(rows, cols, min, max, sparsity, seed))
}

// Sample draws size values from [1, population]. Replacement and seed
// travel as named arguments.
func (c *Context) Sample(size, population int64, withReplacement bool, seed int64) *Matrix {
	return c.matrixNode("sample", litIns(size, population),
		namedInput{name: "withReplacement", in: litIn(withReplacement)},
		namedInput{name: "seed", in: litIn(seed)},
	)
}

// Scalar lifts a host value into the DAG.
func (c *Context) Scalar(v float64) *Scalar {
	return c.scalarNode("", litIns(v))
}

// ScalarInt lifts a host integer into the DAG. It emits without a
// decimal point, so the engine sees an integer-typed scalar.
func (c *Context) ScalarInt(v int64) *Scalar {
	return c.scalarNode("", litIns(v))
}

// CreateFrame assembles a frame from column matrices. labels may be
// nil, otherwise one label per column.
func (c *Context) CreateFrame(cols []*Matrix, labels []string) (*Frame, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidArgument)
	}
	if labels != nil && len(labels) != len(cols) {
		return nil, fmt.Errorf("%w: %d labels for %d columns", ErrInvalidArgument, len(labels), len(cols))
	}
	ins := make([]input, 0, len(cols)+len(labels))
	for _, m := range cols {
		if m == nil {
			return nil, fmt.Errorf("%w: nil column", ErrInvalidArgument)
		}
		ins = append(ins, nodeIn(m.n))
	}
	for _, l := range labels {
		ins = append(ins, litIn(l))
	}
	return c.frameNode("createFrame", ins), nil
}
