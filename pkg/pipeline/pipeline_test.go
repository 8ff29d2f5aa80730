package pipeline

import (
	"errors"
	"strings"
	"testing"
)

const validSpec = `
name: normalize
inputs:
  - name: X
    source: read
    path: data/x.csv
  - name: W
    source: rand
    rows: 4
    cols: 4
    min: -1.0
    max: 1.0
    seed: 42
steps:
  - name: mu
    expr: "X.mean(0)"
  - name: centered
    expr: "X - mu"
outputs:
  - name: centered
    to: stdout
`

func mustParse(t *testing.T, src string) *Spec {
	t.Helper()
	s, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

func TestValidSpecPasses(t *testing.T) {
	s := mustParse(t, validSpec)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.Name != "normalize" || len(s.Inputs) != 2 || len(s.Steps) != 2 {
		t.Fatalf("decoded shape wrong: %+v", s)
	}
	if s.Inputs[1].Seed == nil || *s.Inputs[1].Seed != 42 {
		t.Fatalf("rand seed not decoded: %+v", s.Inputs[1])
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("name: [unclosed"))
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	if !strings.Contains(err.Error(), "phase=parse") {
		t.Fatalf("expected the parse phase tag, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		path string
		want string
	}{
		{
			name: "missing pipeline name",
			yaml: `
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=<doc>",
			want: "missing a name",
		},
		{
			name: "no inputs",
			yaml: `
name: p
steps: [{name: s, expr: "1 + 1"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=<doc>",
			want: "at least one input",
		},
		{
			name: "no steps",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
outputs: [{name: X, to: stdout}]
`,
			path: "path=<doc>",
			want: "at least one step",
		},
		{
			name: "no outputs",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: s, expr: "X.sum()"}]
`,
			path: "path=<doc>",
			want: "at least one output",
		},
		{
			name: "input without name",
			yaml: `
name: p
inputs: [{source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: s, expr: "1 + 1"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=inputs[0]",
			want: "missing a name",
		},
		{
			name: "duplicate input name",
			yaml: `
name: p
inputs:
  - {name: X, source: fill, value: 1.0, rows: 2, cols: 2}
  - {name: X, source: fill, value: 2.0, rows: 2, cols: 2}
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=inputs[X]",
			want: "duplicate name X",
		},
		{
			name: "read without path",
			yaml: `
name: p
inputs: [{name: X, source: read}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=inputs[X]",
			want: "needs a path",
		},
		{
			name: "rand missing cols",
			yaml: `
name: p
inputs: [{name: X, source: rand, rows: 2}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=inputs[X]",
			want: "rows and cols",
		},
		{
			name: "seq missing inc",
			yaml: `
name: p
inputs: [{name: X, source: seq, start: 1.0, end: 5.0}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=inputs[X]",
			want: "start, end and inc",
		},
		{
			name: "fill missing value",
			yaml: `
name: p
inputs: [{name: X, source: fill, rows: 2, cols: 2}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=inputs[X]",
			want: "value, rows and cols",
		},
		{
			name: "unknown source",
			yaml: `
name: p
inputs: [{name: X, source: walk}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=inputs[X]",
			want: `unknown source "walk"`,
		},
		{
			name: "step shadows input",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: X, expr: "X.sum()"}]
outputs: [{name: X, to: stdout}]
`,
			path: "path=steps[X]",
			want: "duplicate name X",
		},
		{
			name: "step expression does not parse",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: s, expr: "X +"}]
outputs: [{name: s, to: stdout}]
`,
			path: "path=steps[s]",
			want: "does not parse",
		},
		{
			name: "step references a later step",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps:
  - {name: a, expr: "b + 1.0"}
  - {name: b, expr: "X.sum()"}
outputs: [{name: a, to: stdout}]
`,
			path: "path=steps[a]",
			want: `references "b" before it is defined`,
		},
		{
			name: "output references unknown name",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: nope, to: stdout}]
`,
			path: "path=outputs[nope]",
			want: `undeclared name "nope"`,
		},
		{
			name: "output with bad destination",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: console}]
`,
			path: "path=outputs[s]",
			want: "stdout or file:",
		},
		{
			name: "file destination without path",
			yaml: `
name: p
inputs: [{name: X, source: fill, value: 1.0, rows: 2, cols: 2}]
steps: [{name: s, expr: "X.sum()"}]
outputs: [{name: s, to: "file: "}]
`,
			path: "path=outputs[s]",
			want: "needs a path",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := mustParse(t, tc.yaml)
			err := s.Validate()
			if err == nil {
				t.Fatalf("expected validation to fail")
			}
			if !errors.Is(err, ErrSpec) {
				t.Fatalf("expected ErrSpec, got %v", err)
			}
			if !strings.Contains(err.Error(), "phase=spec") {
				t.Fatalf("missing phase tag: %v", err)
			}
			if !strings.Contains(err.Error(), tc.path) {
				t.Fatalf("expected %s in error, got %v", tc.path, err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}
