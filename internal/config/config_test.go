package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, format validation and defaults.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing endpoint.
	require.Error(t, Validate(new(Config)))

	// Unsupported scheme.
	require.Error(t, Validate(&Config{EndpointURL: "ftp://collector.local/save"}))

	// Unknown log level.
	require.Error(t, Validate(&Config{EndpointURL: "https://collector.local/save", LogLevel: "loud"}))

	// Shared GPIO line.
	err := Validate(&Config{
		EndpointURL: "https://collector.local/save",
		Buttons:     ButtonsConfig{Chip: "gpiochip0", AlertLine: 5, ClearLine: 5, IndicatorLine: 6},
	})
	require.ErrorIs(t, err, errInvalidLine)

	// Bad status listener.
	err = Validate(&Config{
		EndpointURL: "https://collector.local/save",
		Status:      StatusConfig{ListenAddress: "nope"},
	})
	require.Error(t, err)

	// Minimal file gets every default.
	cfg := &Config{EndpointURL: "https://collector.local/save"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, "wlan0", cfg.NetworkInterface)
	require.Equal(t, 9600, cfg.GPS.Baud)
	require.Equal(t, 23, cfg.Buttons.AlertLine)
	require.Equal(t, 21, cfg.Buttons.ClearLine)
	require.Equal(t, 22, cfg.Buttons.IndicatorLine)
	require.Equal(t, 5*time.Second, cfg.Timing.ReportInterval)
	require.Equal(t, 300*time.Millisecond, cfg.Timing.Debounce)
	require.Equal(t, 100*time.Millisecond, cfg.Timing.Tick)
	require.Equal(t, 3, cfg.Delivery.MaxAttempts)
	require.Equal(t, 2*time.Second, cfg.Delivery.RetryDelay)
	require.False(t, cfg.Delivery.Async)
	require.Equal(t, 8, cfg.Delivery.QueueSize)
	require.Equal(t, "GPS_WifiConfig", cfg.Provisioning.AccessPointSSID)
	require.Equal(t, DefaultCredentialsFilename, cfg.Provisioning.CredentialsFile)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := &Config{
		EndpointURL: "https://collector.local/save_location.php",
		Delivery: DeliveryConfig{
			Async:     true,
			QueueSize: 4,
		},
		Status: StatusConfig{ListenAddress: "127.0.0.1:50051"},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.EndpointURL, loaded.EndpointURL)
	require.True(t, loaded.Delivery.Async)
	require.Equal(t, 4, loaded.Delivery.QueueSize)
	require.Equal(t, "127.0.0.1:50051", loaded.Status.ListenAddress)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadParsesDurations checks that YAML duration strings reach the typed fields.
func TestLoadParsesDurations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := []byte(`endpoint_url: http://127.0.0.1:8080/save
timing:
  report_interval: 10s
  debounce: 250ms
delivery:
  retry_delay: 500ms
`)
	require.NoError(t, os.WriteFile(path, contents, DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, cfg.Timing.ReportInterval)
	require.Equal(t, 250*time.Millisecond, cfg.Timing.Debounce)
	require.Equal(t, 500*time.Millisecond, cfg.Delivery.RetryDelay)
}

// TestSaveNil rejects a nil configuration.
func TestSaveNil(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Save(filepath.Join(t.TempDir(), "x.yaml"), nil), errConfigIsNotSet)
}
