package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ramanid/internal/matching"
	"ramanid/internal/refstore"
	"ramanid/internal/testsupport"
)

func TestCLIConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("RAMANID_DATABASE", "")

	target := filepath.Join(t.TempDir(), "ramanid", "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestCLIConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[matching]")
	requireContains(t, out, env.cfg.Paths.DatabasePath)
}

func TestCLIProcessSavesEditedSpectrum(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeTwoPeakSpectrum(t, "sample.txt")

	out, _, err := runCLI(t, []string{"process", path, "--crop", "0:20"}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "Loaded file: "+path)
	requireContains(t, out, "Cropped spectrum from 0 to 20 cm^-1")
	requireContains(t, out, "Saved 200 samples (21 cropped)")

	saved := filepath.Join(env.cfg.Paths.OutputDir, "sample_processed.txt")
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("read saved spectrum: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 200 {
		t.Fatalf("expected 200 lines, got %d", len(lines))
	}
	if lines[0] != "0 nan" {
		t.Fatalf("expected cropped first sample, got %q", lines[0])
	}
}

func TestCLIProcessRejectsBadRange(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeTwoPeakSpectrum(t, "sample.txt")

	_, _, err := runCLI(t, []string{"process", path, "--crop", "20"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "START:END") {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestCLIPeaksDetectsSyntheticLines(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeTwoPeakSpectrum(t, "sample.txt")

	out, _, err := runCLI(t, []string{"peaks", path}, env.configPath)
	if err != nil {
		t.Fatalf("peaks: %v", err)
	}
	requireContains(t, out, "POSITION")
	requireContains(t, out, "60.00")
	requireContains(t, out, "130.00")

	out, _, err = runCLI(t, []string{"--json", "peaks", path}, env.configPath)
	if err != nil {
		t.Fatalf("peaks --json: %v", err)
	}
	var rows []peakRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode peaks json: %v\n%s", err, out)
	}
	if len(rows) != 2 || rows[0].Position != 60 || rows[1].Position != 130 {
		t.Fatalf("unexpected peaks %+v", rows)
	}
}

func TestCLIFitReportsComponents(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeTwoPeakSpectrum(t, "sample.txt")

	out, _, err := runCLI(t, []string{"fit", path, "--accept-partial"}, env.configPath)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	requireContains(t, out, "Converged:")
	requireContains(t, out, "R²:")
	requireContains(t, out, "FWHM")
}

func TestCLIDatabaseCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeTwoPeakSpectrum(t, "quartz.txt")

	out, _, err := runCLI(t, []string{"db", "add", path, "--name", "Quartz", "--wavelength", "532"}, env.configPath)
	if err != nil {
		t.Fatalf("db add: %v", err)
	}
	requireContains(t, out, "Stored quartz.txt (Quartz) with 2 peaks, strongest at 60.00 cm^-1")

	out, _, err = runCLI(t, []string{"db", "count"}, env.configPath)
	if err != nil {
		t.Fatalf("db count: %v", err)
	}
	requireContains(t, out, "1 references")

	out, _, err = runCLI(t, []string{"db", "search", "QUARTZ"}, env.configPath)
	if err != nil {
		t.Fatalf("db search: %v", err)
	}
	requireContains(t, out, "quartz.txt")
	requireContains(t, out, "532")

	out, _, err = runCLI(t, []string{"db", "search", "calcite"}, env.configPath)
	if err != nil {
		t.Fatalf("db search miss: %v", err)
	}
	requireContains(t, out, `No references named "calcite"`)

	if _, _, err := runCLI(t, []string{"db", "remove", "quartz.txt"}, env.configPath); err != nil {
		t.Fatalf("db remove: %v", err)
	}
	_, _, err = runCLI(t, []string{"db", "remove", "quartz.txt"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), refstore.ErrNotFound.Error()) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCLIDatabaseAddRequiresName(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeTwoPeakSpectrum(t, "quartz.txt")

	_, _, err := runCLI(t, []string{"db", "add", path}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestCLIMatchFindsPair(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedReferences(t, store,
		testsupport.Reference("a.txt", "Alpha", 100, 200),
		testsupport.Reference("b.txt", "Beta", 300),
	)
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, []string{"match", "--peaks", "100,300"}, env.configPath)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	requireContains(t, out, "Found 0 unique minerals matching your peak(s)")
	requireContains(t, out, "Found 1 unique combination of 2 minerals matching your peak(s)")
	requireContains(t, out, "Alpha + Beta")

	out, _, err = runCLI(t, []string{"--json", "match", "--peaks", "100,300"}, env.configPath)
	if err != nil {
		t.Fatalf("match --json: %v", err)
	}
	var report matching.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	pairs := report.Sizes[2]
	if pairs.Count != 1 || len(pairs.Combinations) != 1 || strings.Join(pairs.Combinations[0], ",") != "Alpha,Beta" {
		t.Fatalf("unexpected pairs %+v", pairs)
	}
	if report.Sizes[1].Count != 0 || report.Sizes[3].Count != 0 {
		t.Fatalf("unexpected sizes %+v", report.Sizes)
	}
}

func TestCLIMatchRequiresPeaks(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"match"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--peaks") {
		t.Fatalf("expected missing peaks error, got %v", err)
	}
}

func TestCLIMatchDetectsPeaksFromFile(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.SeedReferences(t, store,
		testsupport.Reference("q.txt", "Quartz", 60, 130),
	)
	store.Close()
	path := env.writeTwoPeakSpectrum(t, "unknown.txt")

	out, _, err := runCLI(t, []string{"match", path}, env.configPath)
	if err != nil {
		t.Fatalf("match file: %v", err)
	}
	requireContains(t, out, "Found 1 unique mineral matching your peak(s)")
	requireContains(t, out, "Quartz")
}
