package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	noterelay "github.com/bak-libra26/note-relay"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of the relay components as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, _, err := openRelay()
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), r.Components())
	},
}

// printStatus writes one "<component> <state JSON>" line per component.
func printStatus(w io.Writer, components []noterelay.Component) error {
	for _, c := range components {
		data, err := json.Marshal(c.State())
		if err != nil {
			return fmt.Errorf("failed to encode %s state: %w", c.ComponentType(), err)
		}
		fmt.Fprintf(w, "%-8s %s\n", c.ComponentType(), data)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
