package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync notes as they change",
	Long: `Watch the vault and upload each note after it is created or modified.
Requires auto_sync_on_modify to be enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, store, err := openRelay()
		if err != nil {
			return err
		}
		if !r.Config().AutoSync {
			return errors.New("auto_sync_on_modify is disabled")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintln(cmd.OutOrStdout(), "Watching", store.Path)
		err = r.Watch(ctx, watchDebounce)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		slog.Info("watch stopped")
		return printStatus(cmd.OutOrStdout(), r.Components())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a changed note is synced (default 250ms)")
}
