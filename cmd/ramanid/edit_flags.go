package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ramanid/internal/config"
	"ramanid/internal/session"
)

// editFlags selects the editing steps applied after a spectrum is loaded.
type editFlags struct {
	crops      []string
	autoCrop   bool
	baseline   bool
	discretize bool
	smooth     bool
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.crops, "crop", nil, "Crop an x range given as START:END (repeatable)")
	cmd.Flags().BoolVar(&f.autoCrop, "auto-crop", false, "Crop the filter edge detected at the low end of the spectrum")
	cmd.Flags().BoolVar(&f.baseline, "baseline", false, "Estimate and subtract an ALS baseline")
	cmd.Flags().BoolVar(&f.discretize, "discretize", false, "Discretize the baseline into control points before subtracting it")
	cmd.Flags().BoolVar(&f.smooth, "smooth", false, "Apply Savitzky-Golay smoothing")
}

// parseRange parses "START:END" into two numbers.
func parseRange(value string) (float64, float64, error) {
	startText, endText, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q: expected START:END", value)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(startText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", startText, err)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(endText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", endText, err)
	}
	return start, end, nil
}

// openEditor loads path into a new editor and applies the selected steps in
// the order crop, baseline, smooth.
func (c *commandContext) openEditor(ctx context.Context, path string, flags editFlags) (*session.Editor, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	editor := session.NewEditor(cfg, logger)
	if err := editor.Load(ctx, expanded); err != nil {
		return nil, err
	}
	if flags.autoCrop {
		if start, end, ok := editor.SuggestedCrop(); ok {
			if err := editor.Crop(ctx, start, end); err != nil {
				return nil, err
			}
		}
	}
	for _, value := range flags.crops {
		start, end, err := parseRange(value)
		if err != nil {
			return nil, err
		}
		if err := editor.Crop(ctx, start, end); err != nil {
			return nil, err
		}
	}
	if flags.baseline {
		if err := editor.EstimateBaseline(ctx); err != nil {
			return nil, err
		}
		if flags.discretize {
			if err := editor.DiscretizeBaseline(ctx); err != nil {
				return nil, err
			}
		}
		if err := editor.CorrectBaseline(ctx); err != nil {
			return nil, err
		}
	}
	if flags.smooth {
		if err := editor.Smooth(ctx); err != nil {
			return nil, err
		}
	}
	return editor, nil
}

func printEditLog(out io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(out, "  - %s\n", line)
	}
}
