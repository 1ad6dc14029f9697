package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ramanid/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.DatabaseEnv, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDB := filepath.Join(tempHome, ".local", "share", "ramanid", "minerals.db")
	if cfg.Paths.DatabasePath != wantDB {
		t.Fatalf("unexpected database path: got %q want %q", cfg.Paths.DatabasePath, wantDB)
	}
	if cfg.Matching.Tolerance != 2 || cfg.Matching.MaxCombination != 3 {
		t.Fatalf("unexpected matching defaults: %+v", cfg.Matching)
	}
	if cfg.MatchTimeout().Seconds() != 120 {
		t.Fatalf("unexpected match timeout: %v", cfg.MatchTimeout())
	}
	if opts := cfg.ALSOptions(); opts.Lambda != 1e5 || opts.P != 0.05 || opts.Iterations != 1000 {
		t.Fatalf("unexpected baseline defaults: %+v", opts)
	}
	if opts := cfg.SmoothOptions(); opts.WindowLength != 13 || opts.PolyOrder != 3 {
		t.Fatalf("unexpected smoothing defaults: %+v", opts)
	}
	if cfg.FitOptions().MaxEvaluations != 10000 {
		t.Fatalf("unexpected fit budget: %d", cfg.FitOptions().MaxEvaluations)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{filepath.Dir(cfg.Paths.DatabasePath), cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ramanid.toml")
	t.Setenv(config.DatabaseEnv, "")

	type payload struct {
		Paths struct {
			DatabasePath string `toml:"database_path"`
		} `toml:"paths"`
		Matching struct {
			Tolerance  float64 `toml:"tolerance"`
			Wavelength string  `toml:"wavelength"`
		} `toml:"matching"`
		Peaks struct {
			Height float64 `toml:"height"`
		} `toml:"peaks"`
	}
	custom := payload{}
	custom.Paths.DatabasePath = filepath.Join(tempDir, "ref.db")
	custom.Matching.Tolerance = 5
	custom.Matching.Wavelength = " 532 "
	custom.Peaks.Height = 0.1
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DatabasePath != custom.Paths.DatabasePath {
		t.Fatalf("expected database path from file, got %q", cfg.Paths.DatabasePath)
	}
	if cfg.Matching.Tolerance != 5 {
		t.Fatalf("expected tolerance 5, got %v", cfg.Matching.Tolerance)
	}
	if cfg.Matching.Wavelength != "532" {
		t.Fatalf("expected trimmed wavelength, got %q", cfg.Matching.Wavelength)
	}
	if h := cfg.PeakOptions().Height; h == nil || *h != 0.1 {
		t.Fatalf("expected peak height 0.1, got %v", h)
	}
	if cfg.PeakOptions().Prominence != nil {
		t.Fatal("expected prominence to stay unset")
	}
}

func TestEnvVarOverridesDatabasePath(t *testing.T) {
	tempDir := t.TempDir()
	want := filepath.Join(tempDir, "env.db")
	t.Setenv(config.DatabaseEnv, want)

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DatabasePath != want {
		t.Fatalf("expected database path from env, got %q", cfg.Paths.DatabasePath)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ramanid.toml")
	if err := os.WriteFile(configPath, []byte("[matching]\ntolerence = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[matching]") {
		t.Fatalf("sample config missing matching section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DatabasePath, "ramanid") {
		t.Fatalf("expected database path to mention ramanid, got %q", cfg.Paths.DatabasePath)
	}
	if cfg.Baseline.Lambda != config.Default().Baseline.Lambda {
		t.Fatalf("sample lambda %v differs from default", cfg.Baseline.Lambda)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"lambda", func(c *config.Config) { c.Baseline.Lambda = 0 }},
		{"asymmetry", func(c *config.Config) { c.Baseline.P = 1 }},
		{"iterations", func(c *config.Config) { c.Baseline.Iterations = 0 }},
		{"even window", func(c *config.Config) { c.Smoothing.WindowLength = 12 }},
		{"polyorder", func(c *config.Config) { c.Smoothing.PolyOrder = 13 }},
		{"fit budget", func(c *config.Config) { c.Fit.MaxEvaluations = 0 }},
		{"combination", func(c *config.Config) { c.Matching.MaxCombination = 4 }},
		{"negative width", func(c *config.Config) { w := -1.0; c.Peaks.Width = &w }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
