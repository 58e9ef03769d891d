package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/sos-tracker/internal/logger"
)

// Config holds everything the tracker binary needs at startup.
type Config struct {
	// EndpointURL is where reports are POSTed.
	EndpointURL string `yaml:"endpoint_url"`
	// NetworkInterface is the wireless interface used for the uplink and device identity.
	NetworkInterface string `yaml:"network_interface"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// GPS describes the serial receiver.
	GPS GPSConfig `yaml:"gps"`
	// Buttons describes the GPIO lines of the buttons and the indicator.
	Buttons ButtonsConfig `yaml:"buttons"`
	// Timing holds the control loop cadence.
	Timing TimingConfig `yaml:"timing"`
	// Delivery holds the retry policy for outgoing reports.
	Delivery DeliveryConfig `yaml:"delivery"`
	// Status configures the read-only gRPC status listener.
	Status StatusConfig `yaml:"status"`
	// Provisioning configures the Wi-Fi onboarding portal.
	Provisioning ProvisioningConfig `yaml:"provisioning"`
}

// GPSConfig describes the serial GPS receiver.
type GPSConfig struct {
	// Device is the tty path of the receiver.
	Device string `yaml:"device"`
	// Baud is the fixed line speed.
	Baud int `yaml:"baud"`
}

// ButtonsConfig maps the buttons and the indicator to GPIO character device lines.
type ButtonsConfig struct {
	// Chip is the GPIO chip name, e.g. gpiochip0.
	Chip string `yaml:"chip"`
	// AlertLine is the offset of the active-low ALERT button.
	AlertLine int `yaml:"alert_line"`
	// ClearLine is the offset of the active-low CLEAR button.
	ClearLine int `yaml:"clear_line"`
	// IndicatorLine is the offset of the indicator output.
	IndicatorLine int `yaml:"indicator_line"`
}

// TimingConfig holds the control loop cadence.
type TimingConfig struct {
	ReportInterval time.Duration `yaml:"report_interval"`
	Debounce       time.Duration `yaml:"debounce"`
	Tick           time.Duration `yaml:"tick"`
}

// DeliveryConfig holds the retry policy for outgoing reports.
type DeliveryConfig struct {
	// MaxAttempts is the total number of attempts per report.
	MaxAttempts int `yaml:"max_attempts"`
	// RetryDelay is the pause between two attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Async moves delivery off the control loop onto a worker goroutine.
	Async bool `yaml:"async"`
	// QueueSize bounds the worker queue when Async is set.
	QueueSize int `yaml:"queue_size"`
}

// StatusConfig configures the local status listener.
type StatusConfig struct {
	// ListenAddress enables the listener when not empty, e.g. 127.0.0.1:50051.
	ListenAddress string `yaml:"listen_address"`
}

// ProvisioningConfig configures the Wi-Fi onboarding flow.
type ProvisioningConfig struct {
	// CredentialsFile stores the saved network credentials.
	CredentialsFile string `yaml:"credentials_file"`
	// AccessPointSSID is the open network announced while the portal runs.
	AccessPointSSID string `yaml:"access_point_ssid"`
	// PortalAddress is where the portal HTTP server listens.
	PortalAddress string `yaml:"portal_address"`
	// ConnectTimeout bounds joining the saved network.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

const (
	// DefaultConfigFilename is the default settings file name.
	DefaultConfigFilename = "sos-tracker-settings.yaml"

	// DefaultCredentialsFilename is the default file for saved Wi-Fi credentials.
	DefaultCredentialsFilename = "wifi_config.yaml"

	// DefaultFilePermissions restricts settings and credentials to the owner.
	DefaultFilePermissions = 0o600

	defaultNetworkInterface = "wlan0"
	defaultGPSDevice        = "/dev/ttyS0"
	defaultGPSBaud          = 9600
	defaultGPIOChip         = "gpiochip0"
	defaultAlertLine        = 23
	defaultClearLine        = 21
	defaultIndicatorLine    = 22
	defaultReportInterval   = 5 * time.Second
	defaultDebounce         = 300 * time.Millisecond
	defaultTick             = 100 * time.Millisecond
	defaultMaxAttempts      = 3
	defaultRetryDelay       = 2 * time.Second
	defaultRequestTimeout   = 10 * time.Second
	defaultQueueSize        = 8
	defaultAccessPointSSID  = "GPS_WifiConfig"
	defaultPortalAddress    = ":80"
	defaultConnectTimeout   = 10 * time.Second
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEndpointRequired is returned when no endpoint URL is configured.
	errEndpointRequired = errors.New("endpoint URL must be provided")
	// errEndpointScheme is returned for endpoints other than http(s).
	errEndpointScheme = errors.New("endpoint URL must use http or https")
	// errInvalidLine is returned when two GPIO roles share a line.
	errInvalidLine = errors.New("buttons and indicator must use distinct non-negative lines")
	// errUnknownLogLevel is returned for unsupported log levels.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults for everything optional.
//
//nolint:cyclop // A flat list of defaults reads better than nested helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := validateEndpoint(cfg.EndpointURL); err != nil {
		return err
	}

	if _, ok := logger.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
	}

	if cfg.NetworkInterface == "" {
		cfg.NetworkInterface = defaultNetworkInterface
	}

	if cfg.GPS.Device == "" {
		cfg.GPS.Device = defaultGPSDevice
	}

	if cfg.GPS.Baud <= 0 {
		cfg.GPS.Baud = defaultGPSBaud
	}

	if cfg.Buttons.Chip == "" {
		cfg.Buttons.Chip = defaultGPIOChip
	}

	// An untouched buttons section gets the reference wiring.
	if cfg.Buttons.AlertLine == 0 && cfg.Buttons.ClearLine == 0 && cfg.Buttons.IndicatorLine == 0 {
		cfg.Buttons.AlertLine = defaultAlertLine
		cfg.Buttons.ClearLine = defaultClearLine
		cfg.Buttons.IndicatorLine = defaultIndicatorLine
	}

	if err := validateLines(cfg.Buttons); err != nil {
		return err
	}

	if cfg.Timing.ReportInterval <= 0 {
		cfg.Timing.ReportInterval = defaultReportInterval
	}

	if cfg.Timing.Debounce <= 0 {
		cfg.Timing.Debounce = defaultDebounce
	}

	if cfg.Timing.Tick <= 0 {
		cfg.Timing.Tick = defaultTick
	}

	if cfg.Delivery.MaxAttempts <= 0 {
		cfg.Delivery.MaxAttempts = defaultMaxAttempts
	}

	if cfg.Delivery.RetryDelay <= 0 {
		cfg.Delivery.RetryDelay = defaultRetryDelay
	}

	if cfg.Delivery.RequestTimeout <= 0 {
		cfg.Delivery.RequestTimeout = defaultRequestTimeout
	}

	if cfg.Delivery.QueueSize <= 0 {
		cfg.Delivery.QueueSize = defaultQueueSize
	}

	if cfg.Status.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.Status.ListenAddress); err != nil {
			return fmt.Errorf("invalid status listen address: %w", err)
		}
	}

	applyProvisioningDefaults(&cfg.Provisioning)

	return nil
}

func validateEndpoint(raw string) error {
	if raw == "" {
		return errEndpointRequired
	}

	endpoint, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}

	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return fmt.Errorf("%w: %q", errEndpointScheme, endpoint.Scheme)
	}

	return nil
}

func validateLines(b ButtonsConfig) error {
	if b.AlertLine < 0 || b.ClearLine < 0 || b.IndicatorLine < 0 {
		return errInvalidLine
	}

	if b.AlertLine == b.ClearLine || b.AlertLine == b.IndicatorLine || b.ClearLine == b.IndicatorLine {
		return errInvalidLine
	}

	return nil
}

func applyProvisioningDefaults(p *ProvisioningConfig) {
	if p.CredentialsFile == "" {
		p.CredentialsFile = DefaultCredentialsFilename
	}

	if p.AccessPointSSID == "" {
		p.AccessPointSSID = defaultAccessPointSSID
	}

	if p.PortalAddress == "" {
		p.PortalAddress = defaultPortalAddress
	}

	if p.ConnectTimeout <= 0 {
		p.ConnectTimeout = defaultConnectTimeout
	}
}
