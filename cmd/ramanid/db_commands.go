package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ramanid/internal/config"
	"ramanid/internal/ingest"
	"ramanid/internal/pipeline"
	"ramanid/internal/refstore"
	"ramanid/internal/spectrum"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Maintain the reference mineral database",
	}

	dbCmd.AddCommand(newDBAddCommand(ctx))
	dbCmd.AddCommand(newDBImportLegacyCommand(ctx))
	dbCmd.AddCommand(newDBSearchCommand(ctx))
	dbCmd.AddCommand(newDBCountCommand(ctx))
	dbCmd.AddCommand(newDBListCommand(ctx))
	dbCmd.AddCommand(newDBRemoveCommand(ctx))

	return dbCmd
}

func newDBAddCommand(ctx *commandContext) *cobra.Command {
	var name string
	var wavelength string
	var peaks []float64
	var filename string

	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Add a reference spectrum",
		Long: "Store FILE as a reference for --name. Peaks are detected with the configured\n" +
			"options unless --peaks is given; the most intense peak is cataloged as the\n" +
			"strongest peak.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			spec, err := ingest.ReadFile(path)
			if err != nil {
				return err
			}
			ref, err := buildReference(spec, peaks, cfg.PeakOptions())
			if err != nil {
				return err
			}
			ref.Filename = filename
			if ref.Filename == "" {
				ref.Filename = filepath.Base(path)
			}
			ref.Names = strings.TrimSpace(name)
			ref.Wavelength = strings.TrimSpace(wavelength)

			return ctx.withStore(func(store *refstore.Store) error {
				if err := store.Upsert(cmd.Context(), ref); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, referenceSummary(ref))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%s) with %d peaks, strongest at %s cm^-1\n",
					ref.Filename, ref.Names, len(ref.Peaks), formatNumber(ref.StrongestPeak, 2))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Mineral name")
	cmd.Flags().StringVar(&wavelength, "wavelength", "", "Excitation wavelength label, e.g. 532")
	cmd.Flags().Float64SliceVar(&peaks, "peaks", nil, "Peak positions to catalog instead of detecting them")
	cmd.Flags().StringVar(&filename, "filename", "", "Key to store the reference under (default: file name)")
	return cmd
}

// buildReference catalogs a spectrum's peaks. Explicit positions take the
// intensity of the nearest sample.
func buildReference(spec *spectrum.Spectrum, positions []float64, opts pipeline.PeakOptions) (refstore.Reference, error) {
	var peaks spectrum.PeakSet
	if len(positions) > 0 {
		for _, p := range positions {
			peaks = peaks.Add(p, intensityAt(spec.X, spec.Y, p))
		}
	} else {
		detected, err := pipeline.FindPeaks(spec.X, spec.Y, opts)
		if err != nil {
			return refstore.Reference{}, err
		}
		peaks = detected
	}
	if peaks.Len() == 0 {
		return refstore.Reference{}, errors.New("no peaks found; pass --peaks to catalog them explicitly")
	}

	strongest := 0
	for i := range peaks.Y {
		if peaks.Y[i] > peaks.Y[strongest] {
			strongest = i
		}
	}
	return refstore.Reference{
		Peaks:         peaks.Positions(),
		StrongestPeak: peaks.X[strongest],
		DataX:         spec.X,
		DataY:         spec.Y,
	}, nil
}

func newDBImportLegacyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy PATH",
		Short: "Import references from a legacy database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *refstore.Store) error {
				report, err := store.ImportLegacy(cmd.Context(), path)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d references\n", report.Imported)
				if len(report.Skipped) == 0 {
					return nil
				}
				fmt.Fprintf(out, "Skipped %d:\n", len(report.Skipped))
				skipped := make([]string, 0, len(report.Skipped))
				for filename := range report.Skipped {
					skipped = append(skipped, filename)
				}
				sort.Strings(skipped)
				for _, filename := range skipped {
					fmt.Fprintf(out, "  - %s: %s\n", filename, report.Skipped[filename])
				}
				return nil
			})
		},
	}
}

func newDBSearchCommand(ctx *commandContext) *cobra.Command {
	var wavelength string

	cmd := &cobra.Command{
		Use:   "search NAME",
		Short: "Find references by mineral name (case-insensitive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *refstore.Store) error {
				refs, err := store.SearchByName(cmd.Context(), args[0], wavelength)
				if err != nil {
					return err
				}
				return printReferences(cmd, ctx, refs, fmt.Sprintf("No references named %q", args[0]))
			})
		},
	}
	cmd.Flags().StringVar(&wavelength, "wavelength", "", "Only show references measured at this wavelength")
	return cmd
}

func newDBCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count stored references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *refstore.Store) error {
				n, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int{"count": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d references in %s\n", n, store.Path())
				return nil
			})
		},
	}
}

func newDBListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *refstore.Store) error {
				refs, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				return printReferences(cmd, ctx, refs, "Database is empty")
			})
		},
	}
}

func newDBRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove FILENAME",
		Short: "Delete a reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *refstore.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

type referenceJSON struct {
	Filename      string    `json:"filename"`
	Names         string    `json:"names"`
	Wavelength    string    `json:"wavelength,omitempty"`
	StrongestPeak float64   `json:"strongest_peak"`
	Peaks         []float64 `json:"peaks"`
	Samples       int       `json:"samples"`
}

func referenceSummary(ref refstore.Reference) referenceJSON {
	return referenceJSON{
		Filename:      ref.Filename,
		Names:         ref.Names,
		Wavelength:    ref.Wavelength,
		StrongestPeak: ref.StrongestPeak,
		Peaks:         ref.Peaks,
		Samples:       len(ref.DataX),
	}
}

func printReferences(cmd *cobra.Command, ctx *commandContext, refs []refstore.Reference, empty string) error {
	if ctx.jsonOutput() {
		out := make([]referenceJSON, len(refs))
		for i, ref := range refs {
			out[i] = referenceSummary(ref)
		}
		return writeJSON(cmd, out)
	}

	out := cmd.OutOrStdout()
	if len(refs) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	rows := make([][]string, len(refs))
	for i, ref := range refs {
		rows[i] = []string{
			ref.Filename,
			ref.Names,
			ref.Wavelength,
			formatNumber(ref.StrongestPeak, 1),
			strconv.Itoa(len(ref.Peaks)),
		}
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Filename", "Mineral", "Wavelength", "Strongest", "Peaks"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
		"", "", "", "Total", strconv.Itoa(len(refs)),
	))
	return nil
}
