package device

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// Receiver returns the bytes the GPS receiver produced since the previous call.
type Receiver interface {
	ReadAvailable() ([]byte, error)
}

// Button samples one momentary push button.
type Button interface {
	Pressed() (bool, error)
}

// Indicator drives the alert indicator output.
type Indicator interface {
	Set(on bool) error
}

// Panel groups the GPIO lines used by the control loop.
type Panel struct {
	// Alert raises the alert when pressed.
	Alert Button
	// Clear clears the alert when pressed.
	Clear Button
	// Indicator is lit while an alert is latched.
	Indicator Indicator

	// closers release the requested lines.
	closers []io.Closer
}

// Close turns the indicator off and releases every line.
func (p *Panel) Close() error {
	if p == nil {
		return nil
	}

	var errs []error

	if p.Indicator != nil {
		if err := p.Indicator.Set(false); err != nil {
			errs = append(errs, fmt.Errorf("indicator off: %w", err))
		}
	}

	if err := p.closeLines(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// closeLines releases lines before the chip, in reverse acquisition order.
func (p *Panel) closeLines() error {
	var errs []error

	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	p.closers = nil

	return errors.Join(errs...)
}

// PanelConfig names the GPIO chip and line offsets.
type PanelConfig struct {
	// Chip is the GPIO chip name, e.g. gpiochip0.
	Chip string
	// AlertLine is the offset of the ALERT button.
	AlertLine int
	// ClearLine is the offset of the CLEAR button.
	ClearLine int
	// IndicatorLine is the offset of the indicator output.
	IndicatorLine int
	// Consumer labels the requested lines in the kernel.
	Consumer string
}

var (
	// ErrUnsupportedPlatform is returned by the stubs on non-Linux builds.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrUnsupportedBaud is returned for line speeds the tty layer cannot set.
	ErrUnsupportedBaud = errors.New("unsupported baud rate")
	// ErrNoHardwareAddress is returned for interfaces without a MAC address.
	ErrNoHardwareAddress = errors.New("interface has no hardware address")
)

// interfaceByName is swapped in tests.
//
//nolint:gochecknoglobals // Test seam for the network interface lookup.
var interfaceByName = net.InterfaceByName

// HardwareAddress returns the MAC address of iface as lowercase colon-separated hex.
func HardwareAddress(iface string) (string, error) {
	netInterface, err := interfaceByName(iface)
	if err != nil {
		return "", fmt.Errorf("lookup interface %q: %w", iface, err)
	}

	if len(netInterface.HardwareAddr) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoHardwareAddress, iface)
	}

	return strings.ToLower(netInterface.HardwareAddr.String()), nil
}
