package pipeline

import (
	"fmt"
	"strings"

	"github.com/irhox/daphne/pkg/lang"
)

func specErrf(path, format string, args ...any) error {
	return fmt.Errorf("phase=spec path=%s: %w: %s", path, ErrSpec, fmt.Sprintf(format, args...))
}

// Validate checks the spec before any DAG is built: structural rules,
// per-source required fields, name uniqueness, and that every step
// expression parses and references only names defined before it.
func (s *Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return specErrf("<doc>", "pipeline is missing a name")
	}
	if len(s.Inputs) == 0 {
		return specErrf("<doc>", "pipeline must declare at least one input")
	}
	if len(s.Steps) == 0 {
		return specErrf("<doc>", "pipeline must declare at least one step")
	}
	if len(s.Outputs) == 0 {
		return specErrf("<doc>", "pipeline must declare at least one output")
	}

	// names grows incrementally, so a step referencing a later step
	// correctly shows up as undefined.
	names := map[string]struct{}{}

	for i, in := range s.Inputs {
		path := elemPath("inputs", i, in.Name)
		if in.Name == "" {
			return specErrf(path, "input is missing a name")
		}
		if _, dup := names[in.Name]; dup {
			return specErrf(path, "duplicate name %s", in.Name)
		}
		names[in.Name] = struct{}{}
		if err := in.validate(path); err != nil {
			return err
		}
	}

	for i, st := range s.Steps {
		path := elemPath("steps", i, st.Name)
		if st.Name == "" {
			return specErrf(path, "step is missing a name")
		}
		if _, dup := names[st.Name]; dup {
			return specErrf(path, "duplicate name %s", st.Name)
		}
		if strings.TrimSpace(st.Expr) == "" {
			return specErrf(path, "step is missing an expression")
		}
		x, err := lang.ParseExpr(st.Expr)
		if err != nil {
			return specErrf(path, "expression does not parse: %v", err)
		}
		var unknown *lang.Ident
		walkIdents(x, func(id *lang.Ident) {
			if unknown == nil {
				if _, known := names[id.Name]; !known {
					unknown = id
				}
			}
		})
		if unknown != nil {
			return specErrf(path, "expression references %q before it is defined", unknown.Name)
		}
		names[st.Name] = struct{}{}
	}

	for i, out := range s.Outputs {
		path := elemPath("outputs", i, out.Name)
		if out.Name == "" {
			return specErrf(path, "output is missing a name")
		}
		if _, known := names[out.Name]; !known {
			return specErrf(path, "output references undeclared name %q", out.Name)
		}
		if _, err := parseDest(out.To); err != nil {
			return specErrf(path, "%v", err)
		}
	}
	return nil
}

func (in Input) validate(path string) error {
	switch in.Source {
	case SourceRead:
		if strings.TrimSpace(in.Path) == "" {
			return specErrf(path, "read input needs a path")
		}
	case SourceRand:
		if in.Rows == nil || in.Cols == nil {
			return specErrf(path, "rand input needs rows and cols")
		}
	case SourceSeq:
		if in.Start == nil || in.End == nil || in.Inc == nil {
			return specErrf(path, "seq input needs start, end and inc")
		}
	case SourceFill:
		if in.Value == nil || in.Rows == nil || in.Cols == nil {
			return specErrf(path, "fill input needs value, rows and cols")
		}
	case "":
		return specErrf(path, "input is missing a source")
	default:
		return specErrf(path, "unknown source %q (expected read, rand, seq or fill)", in.Source)
	}
	return nil
}

func elemPath(section string, i int, name string) string {
	if name == "" {
		return fmt.Sprintf("%s[%d]", section, i)
	}
	return fmt.Sprintf("%s[%s]", section, name)
}

// walkIdents visits every free identifier of an expression. Function
// names in call syntax are not identifiers, so they never reach fn.
func walkIdents(x lang.Expr, fn func(*lang.Ident)) {
	switch t := x.(type) {
	case *lang.Ident:
		fn(t)
	case *lang.Unary:
		walkIdents(t.X, fn)
	case *lang.Binary:
		walkIdents(t.X, fn)
		walkIdents(t.Y, fn)
	case *lang.Call:
		for _, a := range t.Args {
			walkIdents(a, fn)
		}
	case *lang.Method:
		walkIdents(t.Recv, fn)
		for _, a := range t.Args {
			walkIdents(a, fn)
		}
	case *lang.Index:
		walkIdents(t.Recv, fn)
		walkKey(t.Rows, fn)
		walkKey(t.Cols, fn)
	}
}

func walkKey(k lang.IndexKey, fn func(*lang.Ident)) {
	if k.Start != nil {
		walkIdents(k.Start, fn)
	}
	if k.Stop != nil {
		walkIdents(k.Stop, fn)
	}
}
