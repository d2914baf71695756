package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bak-libra26/note-relay/internal/platform"
)

var (
	verbose    bool
	logJSON    bool
	logFile    string
	configFile string
	envFiles   []string

	cfgViper  *viper.Viper
	logCloser io.Closer
)

// boundFlags maps config keys to the persistent flags that override them.
var boundFlags = map[string]string{
	platform.KeyVault:     "vault",
	platform.KeyServerURL: "server-url",
	platform.KeyEndpoint:  "endpoint",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "noterelay",
	Short: "Give every note a stable identifier and relay it to a server",
	Long: `noterelay keeps a stable identifier in the front-matter of every Markdown note
of a vault and uploads notes to a relay server over HTTP.

Settings come from noterelay.yaml, NOTERELAY_* environment variables and flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, closer := platform.NewLogger(cmd.ErrOrStderr(), platform.LogOptions{
			Verbose: verbose,
			File:    logFile,
			JSON:    logJSON,
		})
		slog.SetDefault(logger)
		logCloser = closer

		if err := platform.LoadEnv(envFiles...); err != nil {
			return err
		}
		v, err := platform.NewViper(configFile)
		if err != nil {
			return err
		}
		for key, flag := range boundFlags {
			if f := cmd.Flags().Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
		if used := v.ConfigFileUsed(); used != "" {
			slog.Debug("config loaded", "file", used)
		}
		cfgViper = v
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal("Error", err)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	flags.StringVar(&logFile, "log-file", "", "Write logs to a rotated file instead of stderr")
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default: ./noterelay.yaml or ~/.config/noterelay/noterelay.yaml)")
	flags.StringSliceVar(&envFiles, "env-file", nil, "Load environment variables from these files (default: .env)")
	flags.StringP("vault", "C", ".", "Vault directory")
	flags.String("server-url", "", "Relay server base URL")
	flags.String("endpoint", "", "Relay upload endpoint path")
}
