package daphne

// Action is the facade over an output-free DAG node such as a print or
// write. Computing one runs the script purely for its side effects.
type Action struct {
	n *node
}

// Script previews the script that Compute would run.
func (a *Action) Script() (string, error) {
	return a.n.ctx.previewNode(a.n)
}

// Compute materializes the DAG rooted here.
func (a *Action) Compute(opts ...ComputeOption) error {
	return a.n.ctx.computeAction(a.n, opts)
}
