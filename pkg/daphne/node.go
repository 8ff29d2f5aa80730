package daphne

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/irhox/daphne/pkg/mat"
)

// OutputKind classifies what a DAG node produces on the engine side.
type OutputKind int

const (
	KindMatrix OutputKind = iota
	KindScalar
	KindFrame
	KindNone
)

func (k OutputKind) String() string {
	switch k {
	case KindMatrix:
		return "matrix"
	case KindScalar:
		return "scalar"
	case KindFrame:
		return "frame"
	case KindNone:
		return "none"
	}
	return "unknown"
}

// input is one positional argument of a node. Exactly one of node and
// lit is set: lit holds int64, float64, bool or string.
type input struct {
	node *node
	lit  any
}

func nodeIn(n *node) input     { return input{node: n} }
func litIn(v any) input        { return input{lit: v} }
func litIns(vs ...any) []input {
	ins := make([]input, len(vs))
	for i, v := range vs {
		ins[i] = input{lit: v}
	}
	return ins
}

type namedInput struct {
	name string
	in   input
}

// node is one operator in the lazy DAG. op is the engine-side operator
// tag; it is empty for pure indexing and alias nodes. Local source data
// lives in exactly one of payload, textPayload and framePayload and is
// staged only when a script that uses the node is materialized.
type node struct {
	ctx *Context
	op  string
	out OutputKind

	inputs []input
	named  []namedInput

	// consumers lists every node holding this one as an input, one
	// entry per use. Needed to retarget reads past an in-place
	// indexed write.
	consumers []*node

	brackets     bool // right-hand indexed read
	leftBrackets bool // indexed write, inputs = [target, value, row, col]

	payload      *mat.Dense
	textPayload  [][]string
	framePayload arrow.Record
}

func (c *Context) newNode(op string, out OutputKind, inputs []input, named []namedInput) *node {
	n := &node{ctx: c, op: op, out: out, inputs: inputs, named: named}
	for _, in := range inputs {
		if in.node != nil {
			in.node.consumers = append(in.node.consumers, n)
		}
	}
	for _, ni := range named {
		if ni.in.node != nil {
			ni.in.node.consumers = append(ni.in.node.consumers, n)
		}
	}
	return n
}

// replaceInput swaps every reference to old for new. A consumer may
// use the same node more than once, so all positions are checked.
func (n *node) replaceInput(old, new *node) {
	for i := range n.inputs {
		if n.inputs[i].node == old {
			n.inputs[i].node = new
		}
	}
	for i := range n.named {
		if n.named[i].in.node == old {
			n.named[i].in.node = new
		}
	}
}

func (n *node) hasLocalData() bool {
	return n.payload != nil || n.textPayload != nil || n.framePayload != nil
}

func (c *Context) matrixNode(op string, inputs []input, named ...namedInput) *Matrix {
	return &Matrix{n: c.newNode(op, KindMatrix, inputs, named)}
}

func (c *Context) scalarNode(op string, inputs []input, named ...namedInput) *Scalar {
	return &Scalar{n: c.newNode(op, KindScalar, inputs, named)}
}

func (c *Context) frameNode(op string, inputs []input, named ...namedInput) *Frame {
	return &Frame{n: c.newNode(op, KindFrame, inputs, named)}
}

func (c *Context) actionNode(op string, inputs []input) *Action {
	return &Action{n: c.newNode(op, KindNone, inputs, nil)}
}
