package main

import (
	"os"

	flag "github.com/spf13/pflag"

	"github.com/irhox/daphne/pkg/daphne"
	"github.com/irhox/daphne/pkg/engine"
	"github.com/irhox/daphne/pkg/lib"
)

func main() {
	configPath := flag.String("config", "", "engine config file (default: auto-resolved engine.yaml)")
	noEngine := flag.Bool("no-engine", false, "build DAGs without an engine; :compute is unavailable")
	trace := flag.Bool("trace", false, "dump emitted scripts and timings to stderr")
	flag.Parse()

	var opts []daphne.ContextOption
	if !*noEngine {
		cfg, err := engine.Load(*configPath)
		if err != nil {
			lib.Exit(err)
		}
		eng, err := engine.New(cfg)
		if err != nil {
			lib.Exit(err)
		}
		eng.Trace = os.Stdout
		opts, err = cfg.ContextOptions(eng)
		if err != nil {
			lib.Exit(err)
		}
		if cfg.Verbose {
			*trace = true
		}
	}
	if *trace {
		opts = append(opts, daphne.WithTrace(os.Stderr))
	}

	ctx, err := daphne.NewContext(opts...)
	if err != nil {
		lib.Exit(err)
	}
	defer ctx.Close()

	if err := newSession(ctx).repl(); err != nil {
		lib.Exit(err)
	}
}
