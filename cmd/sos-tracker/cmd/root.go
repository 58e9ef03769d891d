package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sos-tracker/internal/config"
	"github.com/oshokin/sos-tracker/internal/logger"
	"github.com/oshokin/sos-tracker/internal/service/tracker"
	"github.com/oshokin/sos-tracker/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel overrides the level from the configuration file.
	logLevel string
	// debug keeps the board running where provisioning would restart it.
	debug bool

	// rootCmd runs provisioning and the control loop.
	rootCmd = &cobra.Command{
		Use:   "sos-tracker [endpoint-url]",
		Short: "Report GPS position and emergency alerts.",
		Long: `Tracker service for a single-board computer with a serial GPS receiver,
two push buttons and an indicator.

On start it joins the saved wireless network. Without saved credentials it opens
the "GPS_WifiConfig" access point and serves a configuration form instead.

Once connected it reports the position to the endpoint every 5 seconds. The ALERT
button latches an emergency alert and lights the indicator, the CLEAR button
releases it; every change is reported immediately.

The endpoint URL can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(args, false)
		},
	}

	// portalCmd forces the configuration portal.
	portalCmd = &cobra.Command{
		Use:   "portal",
		Short: "Run the Wi-Fi configuration portal.",
		Long: `Starts the configuration access point and form regardless of saved credentials.
The board restarts after new credentials are submitted.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(nil, true)
		},
	}
)

// run starts the tracker with graceful shutdown on SIGINT/SIGTERM.
func run(args []string, forcePortal bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	defer logger.Sync()

	// Use endpoint argument if provided, otherwise rely on config.
	var endpointURL string
	if len(args) > 0 {
		endpointURL = args[0]
	}

	trackerOptions := &tracker.Options{
		ConfigPath:  configPath,
		EndpointURL: endpointURL,
		LogLevel:    logLevel,
		Debug:       debug,
		ForcePortal: forcePortal,
	}

	err := tracker.Run(ctx, trackerOptions)
	if err != nil {
		logger.ErrorKV(ctx, "Tracker stopped", "error", err)
	}

	return err
}

// Execute runs the sos-tracker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(portalCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "override log level (debug, info, warn, error)")

	// Hidden debug flag to skip restarts while testing provisioning.
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "skip restarts for debugging")

	err := rootCmd.PersistentFlags().MarkHidden("debug")
	if err != nil {
		panic(err)
	}
}
