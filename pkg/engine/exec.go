package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/irhox/daphne/pkg/daphne"
)

// Exec runs scripts by invoking the engine binary as a subprocess. It
// implements daphne.Engine.
type Exec struct {
	binary string
	args   []string
	env    map[string]string

	// Trace receives the live engine output when a request is verbose.
	// Nil means output is only captured.
	Trace io.Writer
}

// New builds an Exec from a validated config.
func New(cfg Config) (*Exec, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Exec{binary: cfg.Binary, args: cfg.Args, env: cfg.Env}, nil
}

// Execute runs the engine on the script file named by req.ScriptPath
// and captures its output. A non-zero exit wraps daphne.ErrEngineFailed
// together with the tail of stderr.
func (e *Exec) Execute(ctx context.Context, req daphne.ExecRequest) (daphne.ExecResult, error) {
	argv := append(append([]string{}, e.args...), req.ScriptPath)

	cmd := exec.CommandContext(ctx, e.binary, argv...)
	cmd.Env = environ(e.env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if req.Verbose && e.Trace != nil {
		cmd.Stdout = io.MultiWriter(&stdout, e.Trace)
		cmd.Stderr = io.MultiWriter(&stderr, e.Trace)
	}

	err := cmd.Run()
	res := daphne.ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return res, fmt.Errorf("%w: %s %s: %s",
			daphne.ErrEngineFailed, e.binary, strings.Join(argv, " "), msg)
	}
	return res, nil
}

// environ merges the configured overlay on top of the parent process
// environment.
func environ(overlay map[string]string) []string {
	env := os.Environ()
	for k, v := range overlay {
		env = append(env, k+"="+v)
	}
	return env
}
