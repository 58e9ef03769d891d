package alert

import "time"

// DefaultDebounceWindow is the minimum spacing between two accepted edges of one button.
const DefaultDebounceWindow = 300 * time.Millisecond

// Edge is a debounced press of one button.
type Edge struct {
	// Button is the button that was pressed.
	Button Button
	// Timestamp is when the press was accepted.
	Timestamp time.Time
}

// Debouncer gates raw samples of a single button.
//
// It is level-triggered: a button held down keeps producing an edge every time
// the window elapses.
type Debouncer struct {
	// button is reported in every produced edge.
	button Button
	// window is the minimum time between accepted edges.
	window time.Duration
	// lastEdge is when the previous edge was accepted; zero before the first one.
	lastEdge time.Time
}

// NewDebouncer creates a debouncer for button. A non-positive window
// falls back to DefaultDebounceWindow.
func NewDebouncer(button Button, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}

	return &Debouncer{
		button: button,
		window: window,
	}
}

// Poll inspects one sample. It returns an edge when the button reads pressed
// and more than the window has passed since the previous accepted edge.
func (d *Debouncer) Poll(pressed bool, now time.Time) (Edge, bool) {
	if !pressed {
		return Edge{}, false
	}

	if !d.lastEdge.IsZero() && now.Sub(d.lastEdge) <= d.window {
		return Edge{}, false
	}

	d.lastEdge = now

	return Edge{
		Button:    d.button,
		Timestamp: now,
	}, true
}

// LastEdge returns when the previous edge was accepted.
func (d *Debouncer) LastEdge() time.Time {
	return d.lastEdge
}
