package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"ramanid/internal/pipeline"
	"ramanid/internal/session"
)

type fitRow struct {
	Label  string  `json:"label"`
	Center float64 `json:"center"`
	Sigma  float64 `json:"sigma"`
	Height float64 `json:"height"`
	Area   float64 `json:"area"`
	FWHM   float64 `json:"fwhm"`
}

type fitOutput struct {
	Converged        bool     `json:"converged"`
	Evaluations      int      `json:"evaluations"`
	ChiSquare        float64  `json:"chi_square"`
	ReducedChiSquare float64  `json:"reduced_chi_square"`
	RSquared         float64  `json:"r_squared"`
	Peaks            []fitRow `json:"peaks"`
}

func newFitCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var centers []float64
	var acceptPartial bool

	cmd := &cobra.Command{
		Use:   "fit FILE",
		Short: "Fit Gaussian peaks to a spectrum",
		Long: "Fit one Gaussian per peak. Peak positions come from --peaks when given,\n" +
			"otherwise from automatic detection.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if acceptPartial {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				cfg.Fit.AcceptPartial = true
			}
			editor, err := ctx.openEditor(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			if err := seedPeaks(cmd, editor, centers); err != nil {
				return err
			}
			if err := editor.FitPeaks(cmd.Context()); err != nil {
				return err
			}
			fit := editor.Snapshot().Fit

			output := fitOutput{
				Converged:        fit.Converged,
				Evaluations:      fit.Evaluations,
				ChiSquare:        fit.ChiSquare,
				ReducedChiSquare: fit.ReducedChiSquare,
				RSquared:         fit.RSquared,
			}
			for i, stats := range fit.Ordered() {
				output.Peaks = append(output.Peaks, newFitRow(fit.Labels[i], stats))
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, output)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, len(output.Peaks))
			for i, p := range output.Peaks {
				rows[i] = []string{
					p.Label,
					formatNumber(p.Center, 2),
					formatNumber(p.Sigma, 3),
					formatNumber(p.Height, 4),
					formatNumber(p.Area, 4),
					formatNumber(p.FWHM, 3),
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Peak", "Center", "Sigma", "Height", "Area", "FWHM"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Converged: %s (%d evaluations)\n", highlight(yesNo(fit.Converged), fit.Converged, colorize), fit.Evaluations)
			fmt.Fprintf(out, "R²: %s  reduced χ²: %s\n", formatNumber(fit.RSquared, 5), formatNumber(fit.ReducedChiSquare, 6))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64SliceVar(&centers, "peaks", nil, "Initial peak centers, comma separated")
	cmd.Flags().BoolVar(&acceptPartial, "accept-partial", false, "Keep the best parameters if the fit does not converge")
	return cmd
}

func newFitRow(label string, stats pipeline.PeakStats) fitRow {
	return fitRow{
		Label:  label,
		Center: stats.Center,
		Sigma:  stats.Sigma,
		Height: stats.Height,
		Area:   stats.Area,
		FWHM:   stats.FWHM,
	}
}

// seedPeaks installs explicit centers as peaks, or detects them when none
// are given.
func seedPeaks(cmd *cobra.Command, editor *session.Editor, centers []float64) error {
	if len(centers) == 0 {
		return editor.DetectPeaks(cmd.Context())
	}
	spec := editor.Snapshot().Spectrum
	for _, c := range centers {
		if err := editor.AddPeak(cmd.Context(), c, intensityAt(spec.X, spec.Y, c)); err != nil {
			return err
		}
	}
	return nil
}

// intensityAt returns y at the sample nearest to position.
func intensityAt(x, y []float64, position float64) float64 {
	best, value := math.Inf(1), math.NaN()
	for i := range x {
		if d := math.Abs(x[i] - position); d < best {
			best, value = d, y[i]
		}
	}
	return value
}
