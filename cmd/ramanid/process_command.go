package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type processResult struct {
	SessionID string   `json:"session_id"`
	Source    string   `json:"source"`
	Output    string   `json:"output"`
	Samples   int      `json:"samples"`
	Missing   int      `json:"missing"`
	Log       []string `json:"log"`
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	var outPath string

	cmd := &cobra.Command{
		Use:   "process FILE",
		Short: "Edit a spectrum and save the result as x y lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, err := ctx.openEditor(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			saved, err := editor.Save(outPath)
			if err != nil {
				return err
			}

			snap := editor.Snapshot()
			result := processResult{
				SessionID: editor.ID(),
				Source:    snap.Source,
				Output:    saved,
				Samples:   snap.Spectrum.Len(),
				Missing:   snap.Spectrum.MissingCount(),
				Log:       snap.Log,
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Edits:")
			printEditLog(out, result.Log)
			fmt.Fprintf(out, "Saved %d samples (%d cropped) to %s\n", result.Samples, result.Missing, result.Output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (relative paths land in the output directory)")
	return cmd
}
