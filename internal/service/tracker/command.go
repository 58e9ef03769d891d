package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/sos-tracker/internal/config"
	"github.com/oshokin/sos-tracker/internal/device"
	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
	"github.com/oshokin/sos-tracker/internal/logger"
	"github.com/oshokin/sos-tracker/internal/provisioning"
	"github.com/oshokin/sos-tracker/internal/service/delivery"
	"github.com/oshokin/sos-tracker/internal/service/instance"
	"github.com/oshokin/sos-tracker/internal/service/monitor"
	"github.com/oshokin/sos-tracker/internal/service/status"
	"github.com/oshokin/sos-tracker/internal/version"
)

// BinaryName is the executable name of the tracker.
const BinaryName = "sos-tracker"

// Options controls the sos-tracker process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// EndpointURL overrides the endpoint from the settings file.
	EndpointURL string
	// LogLevel overrides the log level from the settings file.
	LogLevel string
	// Debug keeps the board running where provisioning would restart it.
	Debug bool
	// ForcePortal skips the saved credentials and runs the configuration portal.
	ForcePortal bool
}

// errUnknownLogLevel is returned for an unsupported --log-level value.
var errUnknownLogLevel = errors.New("unknown log level")

// Run provisions the uplink, opens the hardware and runs the control loop until ctx is canceled.
//
//nolint:cyclop,funlen // Linear startup sequence; splitting it hides the order.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, BinaryName)

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	if err = instance.EnsureSingle(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Starting tracker", "version", version.Short(), "endpoint", cfg.EndpointURL)

	// Provisioning guarantees a live uplink before the loop starts.
	radio := provisioning.NewNetworkManager(cfg.NetworkInterface,
		provisioning.WithConnectTimeout(cfg.Provisioning.ConnectTimeout))
	flow := provisioning.NewFlow(cfg.Provisioning,
		provisioning.NewFileStore(cfg.Provisioning.CredentialsFile),
		radio,
		provisioning.WithDebug(opts.Debug))

	if opts.ForcePortal {
		err = flow.RunPortal(ctx)
		if err == nil {
			err = ctx.Err()
		}
	} else {
		err = flow.Ensure(ctx)
	}

	switch {
	case err == nil:
	case errors.Is(err, provisioning.ErrRestartPending):
		logger.Info(ctx, "Restart pending, control loop not started")

		return nil
	case errors.Is(err, context.Canceled):
		return nil
	default:
		return fmt.Errorf("provision network: %w", err)
	}

	deviceID, err := device.HardwareAddress(cfg.NetworkInterface)
	if err != nil {
		return fmt.Errorf("device identifier: %w", err)
	}

	receiver, err := device.OpenSerialReceiver(cfg.GPS.Device, cfg.GPS.Baud)
	if err != nil {
		return fmt.Errorf("open GPS receiver: %w", err)
	}

	defer func() {
		if closeErr := receiver.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Closing GPS receiver failed", "error", closeErr)
		}
	}()

	panel, err := device.OpenPanel(device.PanelConfig{
		Chip:          cfg.Buttons.Chip,
		AlertLine:     cfg.Buttons.AlertLine,
		ClearLine:     cfg.Buttons.ClearLine,
		IndicatorLine: cfg.Buttons.IndicatorLine,
		Consumer:      BinaryName,
	})
	if err != nil {
		return fmt.Errorf("open GPIO panel: %w", err)
	}

	defer func() {
		if closeErr := panel.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Releasing GPIO lines failed", "error", closeErr)
		}
	}()

	board := monitor.NewBoard(deviceID, time.Now())

	var (
		wg     sync.WaitGroup
		sender delivery.Sender = delivery.NewClient(cfg.EndpointURL,
			delivery.WithMaxAttempts(cfg.Delivery.MaxAttempts),
			delivery.WithRetryDelay(cfg.Delivery.RetryDelay),
			delivery.WithRequestTimeout(cfg.Delivery.RequestTimeout),
			delivery.WithUserAgent(version.UserAgent(BinaryName)))
	)

	if cfg.Delivery.Async {
		dispatcher := delivery.NewDispatcher(sender, cfg.Delivery.QueueSize,
			delivery.WithOutcomeHook(func(ctx context.Context, report telemetry.Report, outcome delivery.Outcome) {
				recordOutcome(ctx, board, report, outcome)
			}))
		dispatcher.Start(ctx)

		defer dispatcher.Wait()

		sender = dispatcher
	}

	if cfg.Status.ListenAddress != "" {
		wg.Go(func() {
			if serveErr := status.Serve(ctx, cfg.Status.ListenAddress, board); serveErr != nil {
				logger.ErrorKV(ctx, "Status service failed", "error", serveErr)
			}
		})
	}

	loop := NewLoop(Hardware{
		Receiver:    receiver,
		AlertButton: panel.Alert,
		ClearButton: panel.Clear,
		Indicator:   panel.Indicator,
	}, LoopOptions{
		DeviceID:       deviceID,
		ReportInterval: cfg.Timing.ReportInterval,
		Debounce:       cfg.Timing.Debounce,
		Tick:           cfg.Timing.Tick,
		Sender:         sender,
		Board:          board,
	})

	err = loop.Run(ctx)

	wg.Wait()

	return err
}

// loadSettings reads the settings file and applies command line overrides.
func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.EndpointURL != "" {
		cfg.EndpointURL = opts.EndpointURL

		if err = config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("endpoint override: %w", err)
		}
	}

	levelName := cfg.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	level, ok := logger.ParseLevel(levelName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownLogLevel, levelName)
	}

	logger.SetLevel(level)

	return cfg, nil
}
