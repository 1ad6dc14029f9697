// Package testsupport builds isolated configurations, stores and spectrum
// files for tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"ramanid/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory. Baseline
// iterations are lowered so tests stay fast; options run last.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DatabasePath = filepath.Join(base, "db", "minerals.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "out")
	cfgVal.Baseline.Iterations = 10

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithTolerance sets the matching tolerance.
func WithTolerance(tol float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.Tolerance = tol
	}
}

// WithFitBudget sets the fit evaluation budget and partial-result policy.
func WithFitBudget(maxEvaluations int, acceptPartial bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fit.MaxEvaluations = maxEvaluations
		b.cfg.Fit.AcceptPartial = acceptPartial
	}
}

// WithoutLogDir disables per-run log files.
func WithoutLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LogDir = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
