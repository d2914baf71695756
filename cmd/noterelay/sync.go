package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bak-libra26/note-relay/pkg/core"
)

var (
	syncAll         bool
	syncConcurrency int
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [path...]",
	Short: "Upload notes to the relay server",
	Long: `Upload the given notes to the relay server, creating identifiers where missing.
With --all every eligible note of the vault is uploaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncAll && len(args) == 0 {
			return errors.New("no notes given (use --all to sync the whole vault)")
		}

		r, store, err := openRelay()
		if err != nil {
			return err
		}

		var ids []string
		if syncAll {
			ids, err = r.Eligible(cmd.Context())
		} else {
			ids, err = noteIDs(store, args)
		}
		if err != nil {
			return err
		}

		outcomes := r.SyncAll(cmd.Context(), ids, syncConcurrency)
		failed := 0
		for _, o := range outcomes {
			fmt.Fprintln(cmd.OutOrStdout(), o.Message())
			if !o.OK() {
				failed++
			}
		}
		if failed == 0 {
			return nil
		}
		if outcomes[0].Kind == core.KindConfigIncomplete {
			fmt.Fprintln(cmd.ErrOrStderr(), "Tip: set server_url and sync_endpoint in noterelay.yaml or NOTERELAY_SERVER_URL / NOTERELAY_SYNC_ENDPOINT.")
		}
		return fmt.Errorf("%d of %d notes failed", failed, len(outcomes))
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncAll, "all", "a", false, "Sync every eligible note of the vault")
	syncCmd.Flags().IntVarP(&syncConcurrency, "concurrency", "j", 4, "Maximum parallel uploads")
}
