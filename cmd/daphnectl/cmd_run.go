package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/irhox/daphne/pkg/daphne"
	"github.com/irhox/daphne/pkg/engine"
	"github.com/irhox/daphne/pkg/pipeline"
)

var flagRunTrace bool

var runCmd = &cobra.Command{
	Use:   "run [pipeline]",
	Short: "Run a pipeline on the engine",
	Long: "Build a pipeline into engine scripts and run them. Outputs declared\n" +
		"with `to: stdout` are printed by the engine; file outputs are written\n" +
		"where the pipeline says. Engine output streams through as it arrives.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := pickPipeline(args)
		if err != nil {
			return err
		}
		spec, err := pipeline.Load(path)
		if err != nil {
			return err
		}

		cfg, err := engine.Load(flagConfig)
		if err != nil {
			return err
		}
		eng, err := engine.New(cfg)
		if err != nil {
			return err
		}
		eng.Trace = os.Stdout

		opts, err := cfg.ContextOptions(eng)
		if err != nil {
			return err
		}
		if flagRunTrace || cfg.Verbose {
			opts = append(opts, daphne.WithTrace(os.Stderr))
		}
		ctx, err := daphne.NewContext(opts...)
		if err != nil {
			return err
		}
		defer ctx.Close()

		plan, err := pipeline.Build(spec, ctx)
		if err != nil {
			return err
		}
		return plan.Run(daphne.Verbose(true))
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagRunTrace, "trace", false,
		"dump emitted scripts and timings to stderr")
}
