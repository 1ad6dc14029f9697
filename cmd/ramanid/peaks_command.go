package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ramanid/internal/spectrum"
)

type peakRow struct {
	Position  float64 `json:"position"`
	Intensity float64 `json:"intensity"`
}

func newPeaksCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags

	cmd := &cobra.Command{
		Use:   "peaks FILE",
		Short: "Detect peaks in a spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := ctx.openEditor(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			if err := editor.DetectPeaks(cmd.Context()); err != nil {
				return err
			}
			peaks := editor.Snapshot().Peaks.Sorted()
			if ctx.jsonOutput() {
				return writeJSON(cmd, peakRows(peaks))
			}

			out := cmd.OutOrStdout()
			if peaks.Len() == 0 {
				fmt.Fprintln(out, "No peaks detected")
				return nil
			}
			fmt.Fprintln(out, renderPeakTable(peaks))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func peakRows(peaks spectrum.PeakSet) []peakRow {
	rows := make([]peakRow, peaks.Len())
	for i := range rows {
		rows[i] = peakRow{Position: peaks.X[i], Intensity: peaks.Y[i]}
	}
	return rows
}

func renderPeakTable(peaks spectrum.PeakSet) string {
	rows := make([][]string, peaks.Len())
	for i := range rows {
		rows[i] = []string{strconv.Itoa(i + 1), formatNumber(peaks.X[i], 2), formatNumber(peaks.Y[i], 4)}
	}
	return renderTable(
		[]string{"#", "Position (cm^-1)", "Intensity"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight},
	)
}
