package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irhox/daphne/pkg/pipeline"
)

var listCmd = &cobra.Command{
	Use:   "list [pipeline]",
	Short: "Show a pipeline's inputs, steps and outputs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := pickPipeline(args)
		if err != nil {
			return err
		}
		s, err := pipeline.Load(path)
		if err != nil {
			return err
		}
		printSpec(s)
		return nil
	},
}

func printSpec(s *pipeline.Spec) {
	fmt.Printf("pipeline %q\n", s.Name)

	width := 0
	for _, in := range s.Inputs {
		if len(in.Name) > width {
			width = len(in.Name)
		}
	}
	for _, st := range s.Steps {
		if len(st.Name) > width {
			width = len(st.Name)
		}
	}
	for _, out := range s.Outputs {
		if len(out.Name) > width {
			width = len(out.Name)
		}
	}

	fmt.Println("\ninputs:")
	for _, in := range s.Inputs {
		fmt.Printf("  %-*s  %-4s  %s\n", width, in.Name, in.Source, inputSummary(in))
	}
	fmt.Println("\nsteps:")
	for _, st := range s.Steps {
		fmt.Printf("  %-*s  %s\n", width, st.Name, st.Expr)
	}
	fmt.Println("\noutputs:")
	for _, out := range s.Outputs {
		fmt.Printf("  %-*s  %s\n", width, out.Name, out.To)
	}
}

// inputSummary renders the source-specific fields of a validated input.
func inputSummary(in pipeline.Input) string {
	switch in.Source {
	case pipeline.SourceRead:
		return in.Path
	case pipeline.SourceRand:
		s := fmt.Sprintf("%dx%d", *in.Rows, *in.Cols)
		if in.Seed != nil {
			s += fmt.Sprintf(" seed=%d", *in.Seed)
		}
		return s
	case pipeline.SourceSeq:
		return fmt.Sprintf("%v..%v by %v", *in.Start, *in.End, *in.Inc)
	case pipeline.SourceFill:
		return fmt.Sprintf("%v (%dx%d)", *in.Value, *in.Rows, *in.Cols)
	}
	return ""
}
