package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/cobra"

	"github.com/irhox/daphne/pkg/engine"
	"github.com/irhox/daphne/pkg/shm"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the engine setup is usable",
	Long: "Check the engine configuration, the engine binary, the staging\n" +
		"directory and the shared-memory filesystem, and report what running a\n" +
		"pipeline would find.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor()
	},
}

type check struct {
	name   string
	status string // "ok", "warn" or "FAIL"
	detail string
}

func runDoctor() error {
	cfg, err := engine.Load(flagConfig)
	checks := []check{configCheck(err)}
	if err != nil {
		cfg = engine.Default()
	}
	checks = append(checks,
		binaryCheck(cfg.Binary),
		stagingCheck(cfg.TmpDir),
		shmCheck(),
		memCheck(),
	)

	width := 0
	for _, c := range checks {
		if len(c.name) > width {
			width = len(c.name)
		}
	}
	failed := 0
	for _, c := range checks {
		fmt.Printf("%-*s  %-4s  %s\n", width, c.name, c.status, c.detail)
		if c.status == "FAIL" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func configCheck(loadErr error) check {
	if loadErr != nil {
		return check{"config", "FAIL", loadErr.Error()}
	}
	if flagConfig != "" {
		return check{"config", "ok", flagConfig}
	}
	path, err := engine.ConfigPath()
	if err != nil {
		return check{"config", "warn", err.Error()}
	}
	if _, err := os.Stat(path); err != nil {
		return check{"config", "warn",
			fmt.Sprintf("%s not found, defaults in effect (run `%s init`)", path, appName)}
	}
	return check{"config", "ok", path}
}

func binaryCheck(binary string) check {
	path, err := exec.LookPath(binary)
	if err != nil {
		return check{"engine binary", "FAIL", err.Error()}
	}
	return check{"engine binary", "ok", path}
}

func stagingCheck(tmpDir string) check {
	base := tmpDir
	if base == "" {
		base = os.TempDir()
	}
	probe, err := os.MkdirTemp(base, "daphne-doctor-*")
	if err != nil {
		return check{"staging dir", "FAIL", fmt.Sprintf("%s not writable: %v", base, err)}
	}
	os.RemoveAll(probe)
	return check{"staging dir", "ok", base + " writable"}
}

func shmCheck() check {
	if !shm.Available() {
		return check{"shared memory", "warn",
			shm.Dir + " not present (set `transfer: files`)"}
	}
	usage, err := disk.Usage(shm.Dir)
	if err != nil {
		return check{"shared memory", "warn", err.Error()}
	}
	return check{"shared memory", "ok",
		fmt.Sprintf("%.1f GiB free of %.1f GiB at %s", gib(usage.Free), gib(usage.Total), shm.Dir)}
}

func memCheck() check {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return check{"host memory", "warn", err.Error()}
	}
	return check{"host memory", "ok",
		fmt.Sprintf("%.1f GiB available of %.1f GiB", gib(vm.Available), gib(vm.Total))}
}

func gib(v uint64) float64 {
	return float64(v) / (1 << 30)
}
