package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"

	api "github.com/oshokin/sos-tracker/internal/api/grpc/tracker"
	"github.com/oshokin/sos-tracker/internal/config"
	"github.com/oshokin/sos-tracker/internal/logger"
)

// Options controls the sos-status command.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Address overrides the status address from the settings file.
	Address string
	// Watch repeats the query at this interval when positive.
	Watch time.Duration
	// Timeout specifies the per-RPC timeout duration.
	Timeout time.Duration
	// Output receives the status documents; defaults to stdout.
	Output io.Writer

	// dialOptions are passed to the client, used by tests.
	dialOptions []api.Option
}

// ErrStatusDisabled indicates that no status address is configured.
var ErrStatusDisabled = errors.New("status service is disabled in settings")

// Run prints the tracker status once, or repeatedly when Watch is set.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "sos-status")

	address, err := resolveAddress(opts)
	if err != nil {
		return err
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	clientOptions := append([]api.Option{api.WithCallTimeout(opts.Timeout)}, opts.dialOptions...)

	client, err := api.Dial(address, clientOptions...)
	if err != nil {
		return fmt.Errorf("dial status service: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	if err = printStatus(ctx, client, output); err != nil || opts.Watch <= 0 {
		return err
	}

	logger.InfoKV(ctx, "Watching tracker status", "address", address, "interval", opts.Watch.String())

	ticker := time.NewTicker(opts.Watch)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err = printStatus(ctx, client, output); err != nil {
				logger.ErrorKV(ctx, "Status query failed", "error", err)
			}
		}
	}
}

// printStatus queries the service and writes the answer as indented JSON.
func printStatus(ctx context.Context, client *api.Client, output io.Writer) error {
	result, err := client.GetStatus(ctx)
	if err != nil {
		return err
	}

	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	if _, err = fmt.Fprintln(output, string(data)); err != nil {
		return fmt.Errorf("write status: %w", err)
	}

	return nil
}

// resolveAddress picks the dial address: flag first, then the listen address
// from the settings file with an empty host replaced by localhost.
func resolveAddress(opts *Options) (string, error) {
	if opts.Address != "" {
		return opts.Address, nil
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Status.ListenAddress == "" {
		return "", ErrStatusDisabled
	}

	host, port, err := net.SplitHostPort(cfg.Status.ListenAddress)
	if err != nil {
		return "", fmt.Errorf("invalid status address %q: %w", cfg.Status.ListenAddress, err)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	return net.JoinHostPort(host, port), nil
}
