package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bak-libra26/note-relay/internal/platform"
	"github.com/bak-libra26/note-relay/pkg/devrelay"
)

var (
	serveAddr     string
	serveReassign bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local relay server for development",
	Long: `Run an in-memory relay server that accepts JSON and multipart uploads,
answers with the stored identifier and lists what it received.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := platform.SyncConfigFrom(cfgViper)

		srv := devrelay.New(devrelay.Config{
			Endpoint:        cfg.Endpoint,
			IdentifierField: cfg.IdentifierField,
			Auth:            cfg.Auth,
			Reassign:        serveReassign,
			Logger:          slog.Default(),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := srv.ListenAndServe(ctx, serveAddr); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().BoolVar(&serveReassign, "reassign", false, "Assign a new identifier to every upload")
}
