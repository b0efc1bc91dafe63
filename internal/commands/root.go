package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest-guardian/distwise-lulc/internal/properties"
	"github.com/forest-guardian/distwise-lulc/internal/ui"
)

const version = "0.1.0"

// Service is everything the commands need from the application.
type Service interface {
	ui.Service
	Config() properties.Config
	SetOutDir(dir string)
}

// Builder creates the service lazily so --help never touches GDAL or the
// network.
type Builder func(ctx context.Context) (Service, error)

// NewRootCmd builds the command tree. Without a subcommand the interactive
// menu starts.
func NewRootCmd(build Builder) *cobra.Command {
	root := &cobra.Command{
		Use:     "distwise-lulc",
		Short:   "District-wise land use / land cover statistics",
		Version: version,
		Long: `Computes the share of every Esri/IO land cover class inside an Indian
district for a year between 2017 and 2024, using the io-lulc-annual-v02
collection of the Microsoft Planetary Computer, and renders a bar chart,
a district map, a GeoJSON outline and a CSV table.`,
		Example: `  # Start the interactive menu
  $ distwise-lulc

  # Stats for one district
  $ distwise-lulc stats --state Karnataka --district Bangalore --year 2020

  # Every district of a state
  $ distwise-lulc batch --state Goa --year 2023

  # List states, or the districts of a state
  $ distwise-lulc districts
  $ distwise-lulc districts --state Karnataka`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			svc, err := build(cmd.Context())
			if err != nil {
				return err
			}
			ui.NewMenu(svc, svc.Config().Years(), cmd.InOrStdin(), cmd.OutOrStdout()).Show(cmd.Context())
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(fmt.Sprintf("distwise-lulc version %s\n", version))

	root.AddCommand(newStatsCmd(build))
	root.AddCommand(newBatchCmd(build))
	root.AddCommand(newDistrictsCmd(build))
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, build Builder) error {
	return NewRootCmd(build).ExecuteContext(ctx)
}
