// Package pipeline decodes, validates and builds declarative pipeline
// files: named inputs feeding expression steps, with outputs printed or
// written by the engine. The expression language is pkg/lang; the DAG
// underneath is pkg/daphne.
package pipeline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input sources.
const (
	SourceRead = "read"
	SourceRand = "rand"
	SourceSeq  = "seq"
	SourceFill = "fill"
)

// Spec is a pipeline file as decoded from YAML, before validation.
type Spec struct {
	Name    string   `yaml:"name"`
	Inputs  []Input  `yaml:"inputs"`
	Steps   []Step   `yaml:"steps"`
	Outputs []Output `yaml:"outputs"`
}

// Input declares one named matrix fed into the pipeline. Source picks
// the constructor; the pointer fields let validation tell an absent
// field from a zero one.
type Input struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`

	// read
	Path string `yaml:"path,omitempty"`

	// rand and fill
	Rows *int64 `yaml:"rows,omitempty"`
	Cols *int64 `yaml:"cols,omitempty"`

	// rand; min, max and sparsity default to 0, 1 and 1, and an
	// absent seed lets the engine pick one
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	Sparsity *float64 `yaml:"sparsity,omitempty"`
	Seed     *int64   `yaml:"seed,omitempty"`

	// seq
	Start *float64 `yaml:"start,omitempty"`
	End   *float64 `yaml:"end,omitempty"`
	Inc   *float64 `yaml:"inc,omitempty"`

	// fill
	Value *float64 `yaml:"value,omitempty"`
}

// Step evaluates one expression over the names defined before it.
type Step struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// Output names a value to materialize and where it goes: "stdout" or
// "file:<path>".
type Output struct {
	Name string `yaml:"name"`
	To   string `yaml:"to"`
}

// Parse decodes a pipeline file. It does not validate; call Validate
// or use Load.
func Parse(in []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(in, &s); err != nil {
		return nil, fmt.Errorf("phase=parse path=<doc>: %w", err)
	}
	return &s, nil
}

// Load reads, decodes and validates a pipeline file.
func Load(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("phase=parse path=%s: %w", path, err)
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseDest splits an output destination. The returned path is empty
// for stdout targets.
func parseDest(to string) (string, error) {
	switch {
	case to == "stdout":
		return "", nil
	case strings.HasPrefix(to, "file:"):
		path := strings.TrimSpace(strings.TrimPrefix(to, "file:"))
		if path == "" {
			return "", fmt.Errorf("file destination needs a path")
		}
		return path, nil
	}
	return "", fmt.Errorf("destination must be stdout or file:<path>, got %q", to)
}
