package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
)

// appName is the single source of truth for the application name.
const appName = "daphnectl"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Build, inspect and run daphne pipelines",
	Long: "Build, inspect and run daphne pipelines.\n\n" +
		"A pipeline file declares named inputs, expression steps over them and\n" +
		"outputs to print or write. Commands that take a pipeline argument fall\n" +
		"back to an interactive picker over the YAML files in the current\n" +
		"directory when the argument is omitted.",
}

// pickPipeline resolves the pipeline file argument. Without one, the
// user picks from the YAML files in the current directory.
func pickPipeline(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	files, err := listPipelineFiles(".")
	if err != nil {
		return "", err
	}
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

func listPipelineFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// destLabel renders an output destination for display. An empty path
// means stdout.
func destLabel(path string) string {
	if path == "" {
		return "stdout"
	}
	return "file:" + path
}
