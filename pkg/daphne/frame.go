package daphne

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/irhox/daphne/pkg/mat"
)

// Frame is the lazy facade over a frame-kinded DAG node: labeled,
// possibly mixed-type columns. Frame data always crosses the process
// boundary through files.
type Frame struct {
	n *node
}

func (f *Frame) asInput() input { return input{node: f.n} }

func (f *Frame) agg(op string) *Scalar {
	return f.n.ctx.scalarNode(op, []input{nodeIn(f.n)})
}

func (f *Frame) NRow() *Scalar  { return f.agg("nrow") }
func (f *Frame) NCol() *Scalar  { return f.agg("ncol") }
func (f *Frame) NCell() *Scalar { return f.agg("ncell") }

func (f *Frame) Cbind(other *Frame) *Frame {
	return f.n.ctx.frameNode("cbind", []input{nodeIn(f.n), nodeIn(other.n)})
}

func (f *Frame) Rbind(other *Frame) *Frame {
	return f.n.ctx.frameNode("rbind", []input{nodeIn(f.n), nodeIn(other.n)})
}

// Cartesian crosses every row of f with every row of other.
func (f *Frame) Cartesian(other *Frame) *Frame {
	return f.n.ctx.frameNode("cartesian", []input{nodeIn(f.n), nodeIn(other.n)})
}

// InnerJoin joins on equality of the lhsOn column in f and the rhsOn
// column in other.
func (f *Frame) InnerJoin(other *Frame, lhsOn, rhsOn string) *Frame {
	return f.n.ctx.frameNode("innerJoin",
		[]input{nodeIn(f.n), nodeIn(other.n), litIn(lhsOn), litIn(rhsOn)})
}

// SetColLabels relabels all columns, one label per column.
func (f *Frame) SetColLabels(labels []string) (*Frame, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrInvalidArgument)
	}
	ins := make([]input, 0, 1+len(labels))
	ins = append(ins, nodeIn(f.n))
	for _, l := range labels {
		ins = append(ins, litIn(l))
	}
	return f.n.ctx.frameNode("setColLabels", ins), nil
}

// SetColLabelsPrefix prepends prefix to every column label.
func (f *Frame) SetColLabelsPrefix(prefix string) *Frame {
	return f.n.ctx.frameNode("setColLabelsPrefix", []input{nodeIn(f.n), litIn(prefix)})
}

// Order sorts rows by the given columns, as for matrices.
func (f *Frame) Order(colIdxs []int64, ascs []bool, returnIndexes bool) (*Frame, error) {
	if len(colIdxs) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one column", ErrInvalidArgument)
	}
	if len(colIdxs) != len(ascs) {
		return nil, fmt.Errorf("%w: %d columns but %d sort directions", ErrInvalidArgument, len(colIdxs), len(ascs))
	}
	ins := make([]input, 0, 2+len(colIdxs)+len(ascs))
	ins = append(ins, nodeIn(f.n))
	for _, c := range colIdxs {
		ins = append(ins, litIn(c))
	}
	for _, a := range ascs {
		ins = append(ins, litIn(a))
	}
	ins = append(ins, litIn(returnIndexes))
	return f.n.ctx.frameNode("order", ins), nil
}

// ToMatrix casts the frame to a matrix, optionally forcing a value
// type. An empty vt lets the engine unify column types.
func (f *Frame) ToMatrix(vt mat.ValueType) (*Matrix, error) {
	tag, err := castTag("matrix", vt)
	if err != nil {
		return nil, err
	}
	return f.n.ctx.matrixNode(tag, []input{nodeIn(f.n)}), nil
}

// Print emits the frame on the engine's stdout when computed.
func (f *Frame) Print() *Action {
	return f.n.ctx.actionNode("print", []input{nodeIn(f.n)})
}

// Write stores the frame under path on the engine side when computed.
func (f *Frame) Write(path string) *Action {
	return f.n.ctx.actionNode("writeFrame", []input{nodeIn(f.n), litIn(path)})
}

// Script previews the script that Compute would run.
func (f *Frame) Script() (string, error) {
	return f.n.ctx.previewNode(f.n)
}

// Compute materializes the DAG rooted here and returns the frame as an
// Arrow record. The caller releases the record.
func (f *Frame) Compute(opts ...ComputeOption) (arrow.Record, error) {
	return f.n.ctx.computeFrame(f.n, opts)
}
