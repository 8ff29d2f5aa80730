package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/irhox/daphne/pkg/engine"
)

//go:embed cmd_init_engine.yml
var initEngineYAML []byte

//go:embed cmd_init_pipeline.yml
var initPipelineYAML []byte

const initEngineHeader = "# daphne engine configuration\n" +
	"# Environment overrides: DAPHNE_BINARY, DAPHNE_TMPDIR, DAPHNE_TRANSFER.\n" +
	"# Verify the setup with `" + appName + " doctor`.\n\n"

const initPipelineHeader = "# daphne example pipeline\n" +
	"# Run it:      " + appName + " run <this file>\n" +
	"# Preview it:  " + appName + " emit <this file>\n\n"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialise the daphne config directory with starter files",
	Long: "Create the daphne config directory and populate it with starter files.\n" +
		"Use --interactive to be prompted for the engine settings instead of\n" +
		"writing the commented template.\n\n" +
		"Files created:\n" +
		"  <config>/engine.yaml            — engine binary and transfer settings\n" +
		"  <config>/pipelines/example.yml  — a runnable example pipeline\n\n" +
		"The default config directory follows the same priority as every command:\n" +
		"  $DAPHNE_CONFIG_DIR > $XDG_CONFIG_HOME/daphne > ~/.config/daphne",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		interactive, _ := cmd.Flags().GetBool("interactive")
		dir, _ := cmd.Flags().GetString("dir")

		if dir == "" {
			var err error
			dir, err = engine.ConfigDir()
			if err != nil {
				return err
			}
		}

		engineYAML := initEngineYAML
		if interactive {
			var err error
			engineYAML, err = promptEngineConfig()
			if err != nil {
				return err
			}
		}

		pipelinesDir := filepath.Join(dir, "pipelines")
		if err := os.MkdirAll(pipelinesDir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", pipelinesDir, err)
		}

		engineFile := filepath.Join(dir, "engine.yaml")
		pipelineFile := filepath.Join(pipelinesDir, "example.yml")

		if err := writeInitFile(engineFile, initEngineHeader, engineYAML, force); err != nil {
			return err
		}
		if err := writeInitFile(pipelineFile, initPipelineHeader, initPipelineYAML, force); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "initialised %s\n", dir)
		fmt.Fprintf(os.Stderr, "  %s\n", engineFile)
		fmt.Fprintf(os.Stderr, "  %s\n", pipelineFile)
		fmt.Fprintf(os.Stderr, "\nRun `%s doctor` to verify the engine setup.\n", appName)
		return nil
	},
}

// promptEngineConfig collects engine settings interactively and returns
// them marshalled, ready to live under the engine.yaml header.
func promptEngineConfig() ([]byte, error) {
	cfg := engine.Default()
	cfg.Transfer = "shm"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Engine binary").
				Description("A name resolved on $PATH, or an absolute path.").
				Value(&cfg.Binary),
			huh.NewInput().
				Title("Staging directory").
				Description("Parent for per-session staging dirs. Empty uses the system temp dir.").
				Value(&cfg.TmpDir),
			huh.NewSelect[string]().
				Title("Transfer mode").
				Description("How matrices cross the process boundary.").
				Options(
					huh.NewOption("shared memory", "shm"),
					huh.NewOption("temp files", "files"),
				).
				Value(&cfg.Transfer),
			huh.NewConfirm().
				Title("Trace scripts while computing?").
				Value(&cfg.Verbose),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	return yaml.Marshal(cfg)
}

func writeInitFile(path, header string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	fmt.Fprint(f, header)
	_, err = f.Write(content)
	return err
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing files")
	initCmd.Flags().Bool("interactive", false, "prompt for engine settings instead of writing the template")
	initCmd.Flags().String("dir", "", "target config directory (default: auto-resolved)")
}
