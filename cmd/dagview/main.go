package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ktr0731/go-fuzzyfinder"
	flag "github.com/spf13/pflag"

	"github.com/irhox/daphne/pkg/daphne"
	"github.com/irhox/daphne/pkg/engine"
	"github.com/irhox/daphne/pkg/lib"
	"github.com/irhox/daphne/pkg/pipeline"
)

// target is one output of the loaded pipeline: its emitted script and
// the action that materializes it.
type target struct {
	name   string
	dest   string
	script string
	root   *daphne.Action
}

func main() {
	configPath := flag.String("config", "", "engine config file (default: auto-resolved engine.yaml)")
	noTUI := flag.Bool("no-tui", false, "print the emitted scripts without the interactive view")
	flag.Parse()

	path := flag.Arg(0)
	if path == "" {
		var err error
		path, err = pickPipelineFile()
		if err != nil {
			lib.Exit(err)
		}
	}

	spec, err := pipeline.Load(path)
	if err != nil {
		lib.Exit(err)
	}

	cfg, err := engine.Load(*configPath)
	if err != nil {
		lib.Exit(err)
	}
	eng, err := engine.New(cfg)
	if err != nil {
		lib.Exit(err)
	}
	// engine output lands in a buffer so runs inside the alt screen
	// do not scribble over the view
	trace := &bytes.Buffer{}
	eng.Trace = trace

	opts, err := cfg.ContextOptions(eng)
	if err != nil {
		lib.Exit(err)
	}
	ctx, err := daphne.NewContext(opts...)
	if err != nil {
		lib.Exit(err)
	}
	defer ctx.Close()

	plan, err := pipeline.Build(spec, ctx)
	if err != nil {
		lib.Exit(err)
	}
	targets, err := emitTargets(plan)
	if err != nil {
		lib.Exit(err)
	}

	if *noTUI {
		printTargets(targets)
		return
	}

	p := tea.NewProgram(newModel(spec.Name, targets, trace), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		lib.Exit(err)
	}
}

func emitTargets(plan *pipeline.Plan) ([]target, error) {
	targets := make([]target, 0, len(plan.Targets))
	for _, t := range plan.Targets {
		script, err := t.Root.Script()
		if err != nil {
			return nil, err
		}
		targets = append(targets, target{
			name:   t.Name,
			dest:   destLabel(t.Path),
			script: script,
			root:   t.Root,
		})
	}
	return targets, nil
}

func destLabel(path string) string {
	if path == "" {
		return "stdout"
	}
	return "file:" + path
}

func printTargets(targets []target) {
	for i, t := range targets {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("target %q -> %s\n", t.name, t.dest)
		for _, line := range strings.Split(strings.TrimRight(t.script, "\n"), "\n") {
			fmt.Println("  " + line)
		}
	}
}

func pickPipelineFile() (string, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return "", fmt.Errorf("no pipeline files (*.yml, *.yaml) in the current directory")
	}
	idx, err := fuzzyfinder.Find(
		files,
		func(i int) string { return files[i] },
		fuzzyfinder.WithPromptString("Select pipeline: "),
	)
	if err != nil {
		return "", fmt.Errorf("no pipeline selected")
	}
	return files[idx], nil
}
