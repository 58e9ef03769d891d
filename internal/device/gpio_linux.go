//go:build linux

package device

import (
	"fmt"
	"io"

	"github.com/warthog618/go-gpiocdev"
)

// gpioButton reads an active-low line with the pull-up bias enabled.
type gpioButton struct {
	line *gpiocdev.Line
}

// Pressed reports whether the contact currently pulls the line low.
func (b *gpioButton) Pressed() (bool, error) {
	// The line is requested active-low, so 1 means the physical level is low.
	value, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button line: %w", err)
	}

	return value == 1, nil
}

// gpioIndicator drives an active-high output line.
type gpioIndicator struct {
	line *gpiocdev.Line
}

// Set drives the line high when on.
func (i *gpioIndicator) Set(on bool) error {
	value := 0
	if on {
		value = 1
	}

	if err := i.line.SetValue(value); err != nil {
		return fmt.Errorf("write indicator line: %w", err)
	}

	return nil
}

// OpenPanel requests the button and indicator lines from the GPIO character device.
func OpenPanel(cfg PanelConfig) (*Panel, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer(cfg.Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	panel := &Panel{closers: []io.Closer{chip}}

	// Release whatever was acquired if a later request fails.
	ok := false
	defer func() {
		if !ok {
			_ = panel.closeLines()
		}
	}()

	alert, err := requestButton(chip, cfg.AlertLine)
	if err != nil {
		return nil, err
	}

	panel.closers = append(panel.closers, alert.line)
	panel.Alert = alert

	clearButton, err := requestButton(chip, cfg.ClearLine)
	if err != nil {
		return nil, err
	}

	panel.closers = append(panel.closers, clearButton.line)
	panel.Clear = clearButton

	line, err := chip.RequestLine(cfg.IndicatorLine, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request indicator line %d: %w", cfg.IndicatorLine, err)
	}

	panel.closers = append(panel.closers, line)
	panel.Indicator = &gpioIndicator{line: line}

	ok = true

	return panel, nil
}

func requestButton(chip *gpiocdev.Chip, offset int) (*gpioButton, error) {
	line, err := chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow)
	if err != nil {
		return nil, fmt.Errorf("request button line %d: %w", offset, err)
	}

	return &gpioButton{line: line}, nil
}
