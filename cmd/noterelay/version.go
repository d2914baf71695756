package main

import (
	"fmt"

	noterelay "github.com/bak-libra26/note-relay"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of noterelay",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "noterelay version %s\n", noterelay.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
