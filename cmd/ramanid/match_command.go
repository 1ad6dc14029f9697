package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ramanid/internal/matching"
	"ramanid/internal/refstore"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var peaks []float64
	var tolerance float64
	var wavelength string
	var maxSize int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "match [FILE]",
		Short: "Find mineral combinations that explain observed peaks",
		Long: "Search the reference database for one, two and three mineral combinations\n" +
			"whose peaks cover every observed peak within the tolerance. Peaks come from\n" +
			"--peaks, or are detected in FILE after the requested edits.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if len(peaks) == 0 {
				if len(args) == 0 {
					return errors.New("provide peak positions with --peaks or a spectrum FILE")
				}
				editor, err := ctx.openEditor(cmd.Context(), args[0], flags)
				if err != nil {
					return err
				}
				if err := editor.DetectPeaks(cmd.Context()); err != nil {
					return err
				}
				peaks = editor.Snapshot().Peaks.Positions()
			}

			tol := cfg.Matching.Tolerance
			if cmd.Flags().Changed("tolerance") {
				tol = tolerance
			}
			opts := []matching.Option{
				matching.WithLogger(logger),
				matching.WithTimeout(cfg.MatchTimeout()),
				matching.WithMaxCombination(cfg.Matching.MaxCombination),
				matching.WithWavelength(cfg.Matching.Wavelength),
			}
			if cmd.Flags().Changed("timeout") {
				opts = append(opts, matching.WithTimeout(timeout))
			}
			if cmd.Flags().Changed("max-size") {
				opts = append(opts, matching.WithMaxCombination(maxSize))
			}
			if cmd.Flags().Changed("wavelength") {
				opts = append(opts, matching.WithWavelength(wavelength))
			}

			return ctx.withStore(func(store *refstore.Store) error {
				engine, err := matching.New(store, opts...)
				if err != nil {
					return err
				}
				report, err := engine.Identify(cmd.Context(), peaks, tol)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				printReport(cmd, report)
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64SliceVar(&peaks, "peaks", nil, "Observed peak positions, comma separated")
	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", 0, "Peak position tolerance in cm^-1 (default from config)")
	cmd.Flags().StringVar(&wavelength, "wavelength", "", "Only consider references measured at this wavelength")
	cmd.Flags().IntVar(&maxSize, "max-size", matching.MaxCombinationSize, "Largest number of minerals per combination")
	cmd.Flags().DurationVar(&timeout, "timeout", matching.DefaultTimeout, "Search deadline (0 disables it)")
	return cmd
}

func printReport(cmd *cobra.Command, report *matching.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	positions := make([]string, len(report.Peaks))
	for i, p := range report.Peaks {
		positions[i] = formatNumber(p, 2)
	}
	fmt.Fprintf(out, "Peaks: %s (tolerance %s cm^-1)\n", strings.Join(positions, ", "), formatNumber(report.Tolerance, 2))

	for _, size := range report.SizeKeys() {
		sr := report.Sizes[size]
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader(sizeTitle(size), colorize) {
			fmt.Fprintln(out, line)
		}
		summary := fmt.Sprintf("Found %d unique %s matching your peak(s)", sr.Count, combinationNoun(size, sr.Count))
		fmt.Fprintln(out, highlight(summary, sr.Count > 0, colorize))
		for _, names := range sr.Combinations {
			fmt.Fprintf(out, "  %s\n", strings.Join(names, " + "))
		}
	}
}

func sizeTitle(size int) string {
	switch size {
	case 1:
		return "Single minerals"
	case 2:
		return "Pairs"
	case 3:
		return "Triples"
	default:
		return fmt.Sprintf("Combinations of %d", size)
	}
}

func combinationNoun(size, count int) string {
	if size == 1 {
		if count == 1 {
			return "mineral"
		}
		return "minerals"
	}
	if count == 1 {
		return fmt.Sprintf("combination of %d minerals", size)
	}
	return fmt.Sprintf("combinations of %d minerals", size)
}
