package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/distwise-lulc/internal/batch"
)

func newBatchCmd(build Builder) *cobra.Command {
	var (
		state, year, out string
		workers          int
	)
	cmd := &cobra.Command{
		Use:     "batch",
		Short:   "compute LULC class shares for every district of a state",
		Example: `  $ distwise-lulc batch --state Goa --year 2023 --workers 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := build(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				svc.SetOutDir(out)
			}

			results, err := svc.Batch(cmd.Context(), state, year, batch.Config{
				Workers:  workers,
				Progress: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(w, "FAIL %-25s %v\n", r.District, r.Err)
					continue
				}
				top := "-"
				if !r.Table.Empty() {
					top = fmt.Sprintf("%s %.2f%%", r.Table.Rows[0].DisplayLabel(), r.Table.Rows[0].Fraction)
				}
				fmt.Fprintf(w, "ok   %-25s %s\n", r.District, top)
			}

			failed := batch.Failed(results)
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d districts failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "", "state name as in the boundary dataset (ST_NM)")
	cmd.Flags().StringVarP(&year, "year", "y", "", "LULC year, 2017-2024")
	cmd.Flags().StringVarP(&out, "out", "o", "", "directory for the artefacts, empty to skip them")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent districts (default BATCH_WORKERS)")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}
