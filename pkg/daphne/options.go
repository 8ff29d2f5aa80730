package daphne

import (
	"context"
	"fmt"
	"io"
)

// Transfer selects how matrix data crosses the process boundary, in
// both directions. Text and frame data always go through files.
type Transfer int

const (
	TransferSharedMemory Transfer = iota
	TransferFiles
)

func (t Transfer) String() string {
	if t == TransferFiles {
		return "files"
	}
	return "shared memory"
}

// ParseTransfer maps a configuration string to a Transfer.
func ParseTransfer(s string) (Transfer, error) {
	switch s {
	case "shared memory", "shared_memory", "shm":
		return TransferSharedMemory, nil
	case "files", "file":
		return TransferFiles, nil
	}
	return 0, fmt.Errorf("%w: unknown transfer mode %q", ErrInvalidArgument, s)
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithEngine sets the engine scripts are sent to. Without one, only
// script preview works; materialization fails with ErrNoEngine.
func WithEngine(e Engine) ContextOption {
	return func(c *Context) { c.engine = e }
}

// WithTmpDir sets the parent directory under which the context creates
// its private staging directory. Defaults to os.TempDir().
func WithTmpDir(dir string) ContextOption {
	return func(c *Context) { c.tmpBase = dir }
}

// WithDefaultTransfer sets the transfer mode used when a compute call
// does not choose one.
func WithDefaultTransfer(t Transfer) ContextOption {
	return func(c *Context) { c.transfer = t }
}

// WithTrace directs verbose compute traces to w. Defaults to discard.
func WithTrace(w io.Writer) ContextOption {
	return func(c *Context) { c.trace = w }
}

type computeConfig struct {
	transfer Transfer
	verbose  bool
	shape    *[2]int64
	ctx      context.Context
}

// ComputeOption adjusts a single materialization.
type ComputeOption func(*computeConfig)

// Via overrides the transfer mode for this call.
func Via(t Transfer) ComputeOption {
	return func(cc *computeConfig) { cc.transfer = t }
}

// Verbose turns script and timing traces on or off for this call.
func Verbose(v bool) ComputeOption {
	return func(cc *computeConfig) { cc.verbose = v }
}

// WithShape reinterprets the result as rows by cols. The element count
// must match what the engine returned.
func WithShape(rows, cols int64) ComputeOption {
	return func(cc *computeConfig) { cc.shape = &[2]int64{rows, cols} }
}

// WithContext bounds the engine invocation with ctx.
func WithContext(ctx context.Context) ComputeOption {
	return func(cc *computeConfig) { cc.ctx = ctx }
}

func (c *Context) newComputeConfig(opts []ComputeOption) computeConfig {
	cc := computeConfig{transfer: c.transfer, ctx: context.Background()}
	for _, opt := range opts {
		opt(&cc)
	}
	return cc
}
