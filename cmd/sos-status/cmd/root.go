package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/sos-tracker/internal/config"
	"github.com/oshokin/sos-tracker/internal/service/status"
	"github.com/oshokin/sos-tracker/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// watch repeats the query at this interval.
	watch time.Duration
	// timeout bounds a single status call.
	timeout time.Duration

	// rootCmd queries the local status service.
	rootCmd = &cobra.Command{
		Use:   "sos-status [address]",
		Short: "Show the tracker status.",
		Long: `Queries the read-only status service of a running sos-tracker and prints
the alert state, last position and delivery counters as JSON.

The address can be provided as argument or derived from status.listen_address
in the configuration file. Use --watch to poll repeatedly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var address string
			if len(args) > 0 {
				address = args[0]
			}

			return status.Run(ctx, &status.Options{
				ConfigPath: configPath,
				Address:    address,
				Watch:      watch,
				Timeout:    timeout,
				Output:     cmd.OutOrStdout(),
			})
		},
	}
)

// Execute runs the sos-status CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&watch, "watch", "w", 0, "repeat the query at this interval")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "timeout of one status call")
}
