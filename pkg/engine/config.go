// Package engine invokes the external compute engine binary and loads
// its configuration.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/irhox/daphne/pkg/daphne"
)

// appName is the single source of truth for the application name.
// Derived identifiers (env vars, config paths) are computed from it.
const appName = "daphne"

var (
	envConfigDir = strings.ToUpper(appName) + "_CONFIG_DIR"
	envBinary    = strings.ToUpper(appName) + "_BINARY"
	envTmpDir    = strings.ToUpper(appName) + "_TMPDIR"
	envTransfer  = strings.ToUpper(appName) + "_TRANSFER"
)

// Config describes how to reach the engine binary and which defaults
// materializations use.
type Config struct {
	Binary   string            `yaml:"binary"`
	Args     []string          `yaml:"args,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
	TmpDir   string            `yaml:"tmpDir,omitempty"`
	Transfer string            `yaml:"transfer,omitempty"`
	Verbose  bool              `yaml:"verbose,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Binary:   "daphne",
		Transfer: daphne.TransferSharedMemory.String(),
	}
}

// ConfigDir returns the base config directory.
// Priority: $DAPHNE_CONFIG_DIR > $XDG_CONFIG_HOME/daphne > ~/.config/daphne
func ConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the default engine config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "engine.yaml"), nil
}

// Load reads the engine configuration. An explicit path is read as-is;
// otherwise the default location is used when it exists. Environment
// variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		if _, statErr := os.Stat(p); statErr == nil {
			path = p
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("engine config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("engine config %s: %w", path, err)
		}
	}

	if v := os.Getenv(envBinary); v != "" {
		cfg.Binary = v
	}
	if v := os.Getenv(envTmpDir); v != "" {
		cfg.TmpDir = v
	}
	if v := os.Getenv(envTransfer); v != "" {
		cfg.Transfer = v
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Binary) == "" {
		return fmt.Errorf("engine config: binary must not be empty")
	}
	if c.Transfer != "" {
		if _, err := daphne.ParseTransfer(c.Transfer); err != nil {
			return fmt.Errorf("engine config: %w", err)
		}
	}
	return nil
}

// ContextOptions turns the config into daphne context options, with e
// as the engine.
func (c Config) ContextOptions(e daphne.Engine) ([]daphne.ContextOption, error) {
	opts := []daphne.ContextOption{daphne.WithEngine(e)}
	if c.TmpDir != "" {
		opts = append(opts, daphne.WithTmpDir(c.TmpDir))
	}
	if c.Transfer != "" {
		tr, err := daphne.ParseTransfer(c.Transfer)
		if err != nil {
			return nil, err
		}
		opts = append(opts, daphne.WithDefaultTransfer(tr))
	}
	return opts, nil
}
