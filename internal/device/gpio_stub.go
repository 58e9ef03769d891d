//go:build !linux

package device

import "fmt"

// OpenPanel is not available outside Linux.
func OpenPanel(cfg PanelConfig) (*Panel, error) {
	return nil, fmt.Errorf("gpio chip %s: %w", cfg.Chip, ErrUnsupportedPlatform)
}
