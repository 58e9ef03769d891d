package provisioning

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/sos-tracker/internal/logger"
)

const (
	// DefaultConnectTimeout bounds joining a network.
	DefaultConnectTimeout = 10 * time.Second

	// linkPollInterval is how often the link state is checked while connecting.
	linkPollInterval = time.Second
)

// ErrConnectFailed is returned when the interface did not come up in time.
var ErrConnectFailed = errors.New("unable to connect to network")

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// NetworkManager drives the wireless interface through nmcli.
type NetworkManager struct {
	// iface is the wireless interface name.
	iface string
	// run executes nmcli.
	run CommandRunner
	// connectTimeout bounds Connect.
	connectTimeout time.Duration
}

// NetworkManagerOption configures the manager.
type NetworkManagerOption func(*NetworkManager)

// WithCommandRunner replaces the command runner.
func WithCommandRunner(run CommandRunner) NetworkManagerOption {
	return func(m *NetworkManager) {
		if run != nil {
			m.run = run
		}
	}
}

// WithConnectTimeout bounds Connect.
func WithConnectTimeout(timeout time.Duration) NetworkManagerOption {
	return func(m *NetworkManager) {
		if timeout > 0 {
			m.connectTimeout = timeout
		}
	}
}

// NewNetworkManager creates a manager for iface.
func NewNetworkManager(iface string, opts ...NetworkManagerOption) *NetworkManager {
	m := &NetworkManager{
		iface:          iface,
		run:            execRunner,
		connectTimeout: DefaultConnectTimeout,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Connect joins the network and waits until the interface reports connected.
func (m *NetworkManager) Connect(ctx context.Context, creds Credentials) error {
	ctx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	args := []string{
		"--wait", strconv.Itoa(int(m.connectTimeout.Seconds())),
		"device", "wifi", "connect", creds.SSID,
		"ifname", m.iface,
	}

	if creds.Password != "" {
		args = append(args, "password", creds.Password)
	}

	if output, err := m.run(ctx, "nmcli", args...); err != nil {
		return fmt.Errorf("%w %q: %s: %w", ErrConnectFailed, creds.SSID, strings.TrimSpace(string(output)), err)
	}

	ticker := time.NewTicker(linkPollInterval)
	defer ticker.Stop()

	for {
		connected, err := m.Connected(ctx)
		if err != nil {
			logger.DebugKV(ctx, "Link state query failed", "error", err)
		}

		if connected {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w %q: %w", ErrConnectFailed, creds.SSID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Connected reports whether the interface has an active connection.
func (m *NetworkManager) Connected(ctx context.Context) (bool, error) {
	output, err := m.run(ctx, "nmcli", "-t", "-f", "DEVICE,STATE", "device", "status")
	if err != nil {
		return false, fmt.Errorf("device status: %w", err)
	}

	for _, fields := range terseLines(output) {
		if len(fields) < 2 || fields[0] != m.iface {
			continue
		}

		return strings.HasPrefix(fields[1], "connected"), nil
	}

	return false, nil
}

// Scan lists the SSIDs in range, strongest first as reported by nmcli, without duplicates.
func (m *NetworkManager) Scan(ctx context.Context) ([]string, error) {
	output, err := m.run(ctx, "nmcli", "-t", "-f", "SSID", "device", "wifi", "list", "ifname", m.iface, "--rescan", "yes")
	if err != nil {
		return nil, fmt.Errorf("scan networks: %w", err)
	}

	var networks []string

	for _, fields := range terseLines(output) {
		ssid := fields[0]
		if ssid == "" || slices.Contains(networks, ssid) {
			continue
		}

		networks = append(networks, ssid)
	}

	return networks, nil
}

// StartAccessPoint announces an open network with the given SSID and shares an address range on it.
func (m *NetworkManager) StartAccessPoint(ctx context.Context, ssid string) error {
	// A leftover profile from a previous run is replaced.
	_, _ = m.run(ctx, "nmcli", "connection", "delete", ssid)

	add := []string{
		"connection", "add",
		"type", "wifi",
		"ifname", m.iface,
		"con-name", ssid,
		"autoconnect", "no",
		"ssid", ssid,
		"802-11-wireless.mode", "ap",
		"ipv4.method", "shared",
	}

	if output, err := m.run(ctx, "nmcli", add...); err != nil {
		return fmt.Errorf("create access point: %s: %w", strings.TrimSpace(string(output)), err)
	}

	if output, err := m.run(ctx, "nmcli", "connection", "up", ssid); err != nil {
		return fmt.Errorf("start access point: %s: %w", strings.TrimSpace(string(output)), err)
	}

	return nil
}

// terseLines splits nmcli terse output into unescaped fields.
func terseLines(output []byte) [][]string {
	var result [][]string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		result = append(result, splitTerse(line))
	}

	return result
}

// splitTerse splits on unescaped colons and removes the backslash escapes.
func splitTerse(line string) []string {
	var (
		fields  []string
		current strings.Builder
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)

			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(fields, current.String())
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
