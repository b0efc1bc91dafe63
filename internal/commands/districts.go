package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDistrictsCmd(build Builder) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "districts",
		Short: "list states, or the districts of one state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := build(cmd.Context())
			if err != nil {
				return err
			}
			var names []string
			if state == "" {
				names, err = svc.States()
			} else {
				names, err = svc.Districts(state)
			}
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "", "list the districts of this state")
	return cmd
}
