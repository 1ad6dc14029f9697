package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateBaseline(); err != nil {
		return err
	}
	if err := c.validateSmoothing(); err != nil {
		return err
	}
	if err := c.validatePeaks(); err != nil {
		return err
	}
	if err := c.validateFit(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return fmt.Errorf("paths.database_path must be set (or export %s)", DatabaseEnv)
	}
	return nil
}

func (c *Config) validateBaseline() error {
	if c.Baseline.Lambda <= 0 {
		return errors.New("baseline.lambda must be positive")
	}
	if c.Baseline.P <= 0 || c.Baseline.P >= 1 {
		return errors.New("baseline.p must be between 0 and 1 (exclusive)")
	}
	if c.Baseline.Iterations <= 0 {
		return errors.New("baseline.iterations must be positive")
	}
	if c.Baseline.DiscreteStep <= 0 {
		return errors.New("baseline.discrete_step must be positive")
	}
	return nil
}

func (c *Config) validateSmoothing() error {
	if c.Smoothing.WindowLength <= 0 || c.Smoothing.WindowLength%2 == 0 {
		return errors.New("smoothing.window_length must be a positive odd integer")
	}
	if c.Smoothing.PolyOrder < 0 {
		return errors.New("smoothing.polyorder must not be negative")
	}
	if c.Smoothing.PolyOrder >= c.Smoothing.WindowLength {
		return errors.New("smoothing.polyorder must be less than smoothing.window_length")
	}
	return nil
}

func (c *Config) validatePeaks() error {
	for name, value := range map[string]*float64{
		"peaks.width":      c.Peaks.Width,
		"peaks.rel_height": c.Peaks.RelHeight,
		"peaks.prominence": c.Peaks.Prominence,
	} {
		if value != nil && *value < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func (c *Config) validateFit() error {
	if c.Fit.MaxEvaluations <= 0 {
		return errors.New("fit.max_evaluations must be positive")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.TimeoutSeconds < 0 {
		return errors.New("matching.timeout_seconds must not be negative")
	}
	if c.Matching.MaxCombination < 1 || c.Matching.MaxCombination > maxCombination {
		return fmt.Errorf("matching.max_combination must be between 1 and %d", maxCombination)
	}
	return nil
}
