package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Show whether notes would be synced",
	Long:  `Validate the configuration and report, for each note, whether it is excluded or eligible.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := openRelay()
		if err != nil {
			return err
		}

		cfg := r.Config()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "config: %v\n", err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "config: ok (%s%s, %s)\n", cfg.ServerURL, cfg.Endpoint, cfg.Mode)
		}

		ids := args
		if len(ids) > 0 {
			if ids, err = noteIDs(store, args); err != nil {
				return err
			}
		} else if ids, err = store.List(cmd.Context()); err != nil {
			return err
		}

		for _, id := range ids {
			switch {
			case !cfg.HasExtension(id):
				fmt.Fprintf(cmd.OutOrStdout(), "skip     %s\n", id)
			case r.Excluded(id):
				fmt.Fprintf(cmd.OutOrStdout(), "excluded %s\n", id)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "sync     %s\n", id)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
