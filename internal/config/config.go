package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ramanid/internal/pipeline"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file locations.
type Paths struct {
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
	OutputDir    string `toml:"output_dir"`
}

// Baseline tunes asymmetric least squares baseline estimation.
type Baseline struct {
	Lambda       float64 `toml:"lambda"`
	P            float64 `toml:"p"`
	Iterations   int     `toml:"iterations"`
	DiscreteStep float64 `toml:"discrete_step"`
}

// Smoothing tunes the Savitzky-Golay filter.
type Smoothing struct {
	WindowLength int `toml:"window_length"`
	PolyOrder    int `toml:"polyorder"`
}

// Peaks constrains automatic peak detection. Unset values mean "no limit".
type Peaks struct {
	Width      *float64 `toml:"width"`
	RelHeight  *float64 `toml:"rel_height"`
	Height     *float64 `toml:"height"`
	Prominence *float64 `toml:"prominence"`
}

// Fit bounds Gaussian peak fitting.
type Fit struct {
	MaxEvaluations int  `toml:"max_evaluations"`
	AcceptPartial  bool `toml:"accept_partial"`
}

// Matching configures the mineral combination search.
type Matching struct {
	Tolerance      float64 `toml:"tolerance"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxCombination int     `toml:"max_combination"`
	Wavelength     string  `toml:"wavelength"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for ramanid.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Baseline  Baseline  `toml:"baseline"`
	Smoothing Smoothing `toml:"smoothing"`
	Peaks     Peaks     `toml:"peaks"`
	Fit       Fit       `toml:"fit"`
	Matching  Matching  `toml:"matching"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ramanid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the database, log and output directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.DatabasePath), c.Paths.LogDir, c.Paths.OutputDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ALSOptions returns the baseline settings in pipeline form.
func (c *Config) ALSOptions() pipeline.ALSOptions {
	return pipeline.ALSOptions{Lambda: c.Baseline.Lambda, P: c.Baseline.P, Iterations: c.Baseline.Iterations}
}

// SmoothOptions returns the smoothing settings in pipeline form.
func (c *Config) SmoothOptions() pipeline.SmoothOptions {
	return pipeline.SmoothOptions{WindowLength: c.Smoothing.WindowLength, PolyOrder: c.Smoothing.PolyOrder}
}

// PeakOptions returns the detection constraints in pipeline form.
func (c *Config) PeakOptions() pipeline.PeakOptions {
	return pipeline.PeakOptions{
		Width:      c.Peaks.Width,
		RelHeight:  c.Peaks.RelHeight,
		Height:     c.Peaks.Height,
		Prominence: c.Peaks.Prominence,
	}
}

// FitOptions returns the fit settings in pipeline form.
func (c *Config) FitOptions() pipeline.FitOptions {
	return pipeline.FitOptions{MaxEvaluations: c.Fit.MaxEvaluations}
}

// MatchTimeout returns the combination search deadline.
func (c *Config) MatchTimeout() time.Duration {
	return time.Duration(c.Matching.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
