package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:   "id [path]",
	Short: "Print the identifier of a note, creating it if missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := openRelay()
		if err != nil {
			return err
		}
		ids, err := noteIDs(store, args)
		if err != nil {
			return err
		}

		out := r.EnsureIdentifier(cmd.Context(), ids[0])
		if out.Err != nil {
			return fmt.Errorf("%s: %w", ids[0], out.Err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Identifier)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
}
