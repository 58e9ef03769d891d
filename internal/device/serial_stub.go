//go:build !linux

package device

import "fmt"

// SerialReceiver is unavailable outside Linux.
type SerialReceiver struct{}

// OpenSerialReceiver is not available outside Linux.
func OpenSerialReceiver(path string, _ int) (*SerialReceiver, error) {
	return nil, fmt.Errorf("serial %s: %w", path, ErrUnsupportedPlatform)
}

// ReadAvailable never returns data.
func (*SerialReceiver) ReadAvailable() ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

// Close is a no-op.
func (*SerialReceiver) Close() error {
	return nil
}
