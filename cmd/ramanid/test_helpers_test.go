package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ramanid/internal/config"
	"ramanid/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	dir        string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.DatabaseEnv, "")

	cfg := testsupport.NewConfig(t, testsupport.WithTolerance(0))
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, dir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndatabase_path = %q\nlog_dir = %q\noutput_dir = %q\n\n[baseline]\niterations = %d\n\n[matching]\ntolerance = %.3f\n",
		cfg.Paths.DatabasePath,
		cfg.Paths.LogDir,
		cfg.Paths.OutputDir,
		cfg.Baseline.Iterations,
		cfg.Matching.Tolerance,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// writeTwoPeakSpectrum writes 200 samples at 1 cm^-1 spacing with peaks at
// 60 and 130.
func (e *cliTestEnv) writeTwoPeakSpectrum(t *testing.T, name string) string {
	t.Helper()
	x, y := testsupport.SyntheticSpectrum(0, 1, 200,
		testsupport.Peak{Center: 60, Height: 1, Sigma: 3},
		testsupport.Peak{Center: 130, Height: 0.5, Sigma: 4},
	)
	return testsupport.WriteSpectrum(t, e.dir, name, x, y)
}
