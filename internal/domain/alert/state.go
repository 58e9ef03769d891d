package alert

// State is the latched alert status of the device.
type State int

const (
	// StateArmed is the initial state: no emergency is being signaled.
	StateArmed State = iota
	// StateAlert means the ALERT button was pressed and not yet cleared.
	StateAlert
)

// String returns a lowercase name suitable for logs.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Button identifies one of the two physical buttons.
type Button int

const (
	// ButtonAlert raises the alert.
	ButtonAlert Button = iota
	// ButtonClear clears a raised alert.
	ButtonClear
)

// String returns a lowercase name suitable for logs.
func (b Button) String() string {
	switch b {
	case ButtonAlert:
		return "alert"
	case ButtonClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Transition describes a latch state change.
type Transition struct {
	// From is the state before the edge.
	From State
	// To is the state after the edge.
	To State
	// Trigger is the button whose edge caused the change.
	Trigger Button
}

// Latch holds the alert state until a qualifying button edge changes it.
// The zero value is armed and ready to use.
type Latch struct {
	// state is the current latched value.
	state State
}

// State returns the current latched value.
func (l *Latch) State() State {
	return l.state
}

// IsAlert reports whether an alert is currently latched.
func (l *Latch) IsAlert() bool {
	return l.state == StateAlert
}

// Apply feeds a debounced edge into the latch. It reports false when the
// press targets the state the latch is already in.
func (l *Latch) Apply(button Button) (Transition, bool) {
	var target State

	switch button {
	case ButtonAlert:
		target = StateAlert
	case ButtonClear:
		target = StateArmed
	default:
		return Transition{}, false
	}

	if l.state == target {
		return Transition{}, false
	}

	transition := Transition{
		From:    l.state,
		To:      target,
		Trigger: button,
	}
	l.state = target

	return transition, true
}
