package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/distwise-lulc/internal/pipeline"
	"github.com/forest-guardian/distwise-lulc/internal/progress"
	"github.com/forest-guardian/distwise-lulc/internal/stats"
)

func newStatsCmd(build Builder) *cobra.Command {
	var (
		state, district, year, out string
		quiet                      bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "compute LULC class shares for one district",
		Example: `  $ distwise-lulc stats --state Karnataka --district Bangalore --year 2020
  $ distwise-lulc stats -s Goa -d "North Goa" -y 2024 --out /tmp/lulc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := build(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				svc.SetOutDir(out)
			}

			var sink pipeline.ProgressSink
			if !quiet {
				sink = progress.NewBar(cmd.ErrOrStderr(), fmt.Sprintf("%s %s", district, year))
			}
			report, err := svc.Stats(cmd.Context(), state, district, year, sink)
			if err != nil {
				return err
			}

			printTable(cmd.OutOrStdout(), report.Table)
			if report.Paths.Chart != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nchart:   %s\nmap:     %s\ngeojson: %s\ncsv:     %s\n",
					report.Paths.Chart, report.Paths.Map, report.Paths.GeoJSON, report.Paths.CSV)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "", "state name as in the boundary dataset (ST_NM)")
	cmd.Flags().StringVarP(&district, "district", "d", "", "district name as in the boundary dataset (DISTRICT)")
	cmd.Flags().StringVarP(&year, "year", "y", "", "LULC year, 2017-2024")
	cmd.Flags().StringVarP(&out, "out", "o", "", "directory for the artefacts, empty to skip them")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("district")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func printTable(w io.Writer, t stats.Table) {
	fmt.Fprintf(w, "%s - %d LULC Class-wise %% Distribution\n", t.District, t.Year)
	if t.Empty() {
		fmt.Fprintln(w, "no overlap with the land cover raster")
		return
	}
	fmt.Fprintf(w, "%-5s %-20s %8s  %s\n", "code", "class", "%", "color")
	for _, r := range t.Rows {
		fmt.Fprintf(w, "%-5d %-20s %8.2f  %s\n", r.ClassCode, r.DisplayLabel(), r.Fraction, r.Color)
	}
}
