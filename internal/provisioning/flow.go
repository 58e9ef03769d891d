package provisioning

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/oshokin/sos-tracker/internal/config"
	"github.com/oshokin/sos-tracker/internal/logger"
	"github.com/oshokin/sos-tracker/internal/service/power"
)

// restartDelay lets the portal answer reach the browser before the board restarts.
const restartDelay = 2 * time.Second

// ErrRestartPending is returned when the tracker must not start the loop in this run
// because the board is about to restart with new or erased credentials.
var ErrRestartPending = errors.New("restart pending")

// Connector joins a network.
type Connector interface {
	Connect(ctx context.Context, creds Credentials) error
}

// Radio is the wireless interface as seen by the portal.
type Radio interface {
	Connector
	Scanner
	StartAccessPoint(ctx context.Context, ssid string) error
}

// Flow decides between joining the saved network and running the portal.
type Flow struct {
	// cfg holds the access point and portal settings.
	cfg config.ProvisioningConfig
	// store keeps the credentials.
	store Store
	// radio drives the wireless interface.
	radio Radio
	// reboot restarts the board.
	reboot func(ctx context.Context) error
	// debug logs restarts instead of performing them.
	debug bool
	// listen opens the portal listener.
	listen func(ctx context.Context, address string) (net.Listener, error)
	// restartDelay is waited after a successful submission.
	restartDelay time.Duration
}

// FlowOption configures the flow.
type FlowOption func(*Flow)

// WithReboot replaces the restart action.
func WithReboot(reboot func(ctx context.Context) error) FlowOption {
	return func(f *Flow) {
		if reboot != nil {
			f.reboot = reboot
		}
	}
}

// WithDebug keeps the board running where it would restart.
func WithDebug(debug bool) FlowOption {
	return func(f *Flow) {
		f.debug = debug
	}
}

// NewFlow creates a provisioning flow.
func NewFlow(cfg config.ProvisioningConfig, store Store, radio Radio, opts ...FlowOption) *Flow {
	f := &Flow{
		cfg:          cfg,
		store:        store,
		radio:        radio,
		reboot:       power.Reboot,
		listen:       listenTCP,
		restartDelay: restartDelay,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Ensure returns nil once the saved network is joined. Otherwise it either runs
// the portal or erases the credentials and restarts; both end in ErrRestartPending.
func (f *Flow) Ensure(ctx context.Context) error {
	ctx = logger.WithName(ctx, "provisioning")

	creds, err := f.store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		logger.Info(ctx, "No saved credentials, starting configuration portal")

		return f.runPortal(ctx)
	default:
		logger.ErrorKV(ctx, "Saved credentials are unreadable, starting configuration portal", "error", err)

		if err = f.store.Erase(ctx); err != nil {
			return fmt.Errorf("erase credentials: %w", err)
		}

		return f.runPortal(ctx)
	}

	logger.InfoKV(ctx, "Connecting to saved network", "ssid", creds.SSID)

	if err = f.radio.Connect(ctx, *creds); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.ErrorKV(ctx, "Connection failed, erasing saved credentials", "ssid", creds.SSID, "error", err)

		if err = f.store.Erase(ctx); err != nil {
			return fmt.Errorf("erase credentials: %w", err)
		}

		return f.restart(ctx)
	}

	logger.InfoKV(ctx, "Connected to saved network", "ssid", creds.SSID)

	return nil
}

// RunPortal starts the access point and serves the portal until credentials are
// submitted, then restarts. It returns nil when ctx is canceled first.
func (f *Flow) RunPortal(ctx context.Context) error {
	return f.runPortal(logger.WithName(ctx, "provisioning"))
}

func (f *Flow) runPortal(ctx context.Context) error {
	// Scan while the radio is still a station; the list is the fallback for the form.
	networks, err := f.radio.Scan(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Initial network scan failed", "error", err)
	}

	if err = f.radio.StartAccessPoint(ctx, f.cfg.AccessPointSSID); err != nil {
		return fmt.Errorf("start access point: %w", err)
	}

	lis, err := f.listen(ctx, f.cfg.PortalAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", f.cfg.PortalAddress, err)
	}

	portal := NewPortal(ctx, f.store, f.radio, networks)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	served := make(chan error, 1)

	go func() {
		served <- portal.Serve(serveCtx, lis)
	}()

	logger.InfoKV(ctx, "Configuration portal started",
		"access_point", f.cfg.AccessPointSSID,
		"listen_address", lis.Addr().String())

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Configuration portal stopped")

		return <-served
	case err = <-served:
		return err
	case creds := <-portal.Saved():
		logger.InfoKV(ctx, "Credentials received, restarting", "ssid", creds.SSID)
	}

	// Give the confirmation page time to reach the browser.
	timer := time.NewTimer(f.restartDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	stop()

	if err = <-served; err != nil {
		logger.WarnKV(ctx, "Portal shutdown failed", "error", err)
	}

	return f.restart(ctx)
}

// restart reboots the board, or only logs in debug mode.
func (f *Flow) restart(ctx context.Context) error {
	if f.debug {
		logger.Info(ctx, "Debug mode prevents restart")

		return ErrRestartPending
	}

	if err := f.reboot(ctx); err != nil {
		return fmt.Errorf("restart: %w", err)
	}

	return ErrRestartPending
}

func listenTCP(ctx context.Context, address string) (net.Listener, error) {
	lc := net.ListenConfig{}

	return lc.Listen(ctx, "tcp", address)
}
