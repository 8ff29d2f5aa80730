package pipeline

import (
	"fmt"

	"github.com/irhox/daphne/pkg/daphne"
	"github.com/irhox/daphne/pkg/lang"
)

// Target is one resolved output: the action to compute and where its
// result lands. Path is empty for stdout targets, whose print output
// arrives on the engine's stdout.
type Target struct {
	Name string
	Path string
	Root *daphne.Action
}

// Plan is a validated pipeline bound to a DAG context, ready to emit
// or run.
type Plan struct {
	Name    string
	Env     *lang.Env
	Targets []Target
}

// Build validates the spec, constructs its inputs, evaluates its steps
// in order and resolves every output into a Target.
func Build(s *Spec, ctx *daphne.Context) (*Plan, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	env := lang.NewEnv(ctx)
	for _, in := range s.Inputs {
		env.Define(in.Name, in.node(ctx))
	}
	for _, st := range s.Steps {
		v, err := env.Eval(st.Expr)
		if err != nil {
			return nil, fmt.Errorf("phase=build path=steps[%s]: %w", st.Name, err)
		}
		env.Define(st.Name, v)
	}

	targets := make([]Target, 0, len(s.Outputs))
	for _, out := range s.Outputs {
		t, err := resolveTarget(env, out)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return &Plan{Name: s.Name, Env: env, Targets: targets}, nil
}

// Run computes every target in order. Print output lands on the
// engine's stdout; surface it by putting a trace writer on the engine
// and computing with daphne.Verbose(true).
func (p *Plan) Run(opts ...daphne.ComputeOption) error {
	for _, t := range p.Targets {
		if err := t.Root.Compute(opts...); err != nil {
			return fmt.Errorf("phase=run path=outputs[%s]: %w", t.Name, err)
		}
	}
	return nil
}

func (in Input) node(ctx *daphne.Context) *daphne.Matrix {
	switch in.Source {
	case SourceRead:
		return ctx.ReadMatrix(in.Path)
	case SourceRand:
		return ctx.Rand(*in.Rows, *in.Cols,
			orFloat(in.Min, 0), orFloat(in.Max, 1), orFloat(in.Sparsity, 1), orInt(in.Seed, -1))
	case SourceSeq:
		return ctx.Seq(*in.Start, *in.End, *in.Inc)
	}
	return ctx.Fill(*in.Value, *in.Rows, *in.Cols)
}

func orFloat(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

func orInt(p *int64, def int64) int64 {
	if p != nil {
		return *p
	}
	return def
}

func resolveTarget(env *lang.Env, out Output) (Target, error) {
	path, err := parseDest(out.To)
	if err != nil {
		return Target{}, specErrf(fmt.Sprintf("outputs[%s]", out.Name), "%v", err)
	}
	v, ok := env.Lookup(out.Name)
	if !ok {
		return Target{}, specErrf(fmt.Sprintf("outputs[%s]", out.Name), "output references undeclared name %q", out.Name)
	}

	if path == "" {
		switch r := v.(type) {
		case *daphne.Matrix:
			return Target{Name: out.Name, Root: r.Print()}, nil
		case *daphne.Scalar:
			return Target{Name: out.Name, Root: r.Print()}, nil
		case *daphne.Frame:
			return Target{Name: out.Name, Root: r.Print()}, nil
		case *daphne.Action:
			return Target{Name: out.Name, Root: r}, nil
		case int64:
			return Target{Name: out.Name, Root: env.Context().ScalarInt(r).Print()}, nil
		case float64:
			return Target{Name: out.Name, Root: env.Context().Scalar(r).Print()}, nil
		}
		return Target{}, buildErrf(out.Name, "%T cannot be printed", v)
	}

	switch r := v.(type) {
	case *daphne.Matrix:
		return Target{Name: out.Name, Path: path, Root: r.Write(path)}, nil
	case *daphne.Frame:
		return Target{Name: out.Name, Path: path, Root: r.Write(path)}, nil
	}
	return Target{}, buildErrf(out.Name, "only matrices and frames can be written to a file, %q is not one", out.Name)
}

func buildErrf(name, format string, args ...any) error {
	return fmt.Errorf("phase=build path=outputs[%s]: %w: %s", name, ErrSpec, fmt.Sprintf(format, args...))
}
