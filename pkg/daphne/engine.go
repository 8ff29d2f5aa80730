package daphne

import "context"

// ExecRequest carries one script to an engine. Script holds the full
// text; ScriptPath points at the same text already written under the
// context's staging directory, for engines that take a file argument.
type ExecRequest struct {
	Script     string
	ScriptPath string
	Verbose    bool
}

// ExecResult is what the engine produced. Stdout carries print output,
// which scalar materialization parses.
type ExecResult struct {
	Stdout []byte
	Stderr []byte
}

// Engine runs emitted scripts. The process-backed implementation lives
// in pkg/engine; tests substitute in-memory fakes.
type Engine interface {
	Execute(ctx context.Context, req ExecRequest) (ExecResult, error)
}
