package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/irhox/daphne/pkg/daphne"
	"github.com/irhox/daphne/pkg/pipeline"
)

var emitCmd = &cobra.Command{
	Use:   "emit [pipeline]",
	Short: "Print the engine scripts a pipeline would run",
	Long: "Build a pipeline and print the script emitted for each output without\n" +
		"touching the engine. One script per output: targets materialize\n" +
		"independently, so shared steps reappear in every script that uses them.",
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

		// No engine: script preview never runs anything.
		ctx, err := daphne.NewContext()
		if err != nil {
			return err
		}
		defer ctx.Close()

		plan, err := pipeline.Build(spec, ctx)
		if err != nil {
			return err
		}
		for i, t := range plan.Targets {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("target %q -> %s\n", t.Name, destLabel(t.Path))
			script, err := t.Root.Script()
			if err != nil {
				return err
			}
			for _, line := range strings.Split(strings.TrimRight(script, "\n"), "\n") {
				fmt.Println("  " + line)
			}
		}
		return nil
	},
}
