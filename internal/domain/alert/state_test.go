package alert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLatch_RepeatedAlertIsNoop verifies [ALERT, ALERT] from Armed yields one transition.
func TestLatch_RepeatedAlertIsNoop(t *testing.T) {
	t.Parallel()

	var latch Latch
	require.Equal(t, StateArmed, latch.State())

	transition, changed := latch.Apply(ButtonAlert)
	require.True(t, changed)
	require.Equal(t, Transition{From: StateArmed, To: StateAlert, Trigger: ButtonAlert}, transition)

	_, changed = latch.Apply(ButtonAlert)
	require.False(t, changed)
	require.True(t, latch.IsAlert())
}

// TestLatch_AlertClearClear verifies [ALERT, CLEAR, CLEAR] yields two transitions.
func TestLatch_AlertClearClear(t *testing.T) {
	t.Parallel()

	var (
		latch       Latch
		transitions []Transition
	)

	for _, button := range []Button{ButtonAlert, ButtonClear, ButtonClear} {
		if transition, changed := latch.Apply(button); changed {
			transitions = append(transitions, transition)
		}
	}

	require.Equal(t, []Transition{
		{From: StateArmed, To: StateAlert, Trigger: ButtonAlert},
		{From: StateAlert, To: StateArmed, Trigger: ButtonClear},
	}, transitions)
	require.Equal(t, StateArmed, latch.State())
}

// TestLatch_ClearWhileArmed ensures CLEAR on an armed latch changes nothing.
func TestLatch_ClearWhileArmed(t *testing.T) {
	t.Parallel()

	var latch Latch

	_, changed := latch.Apply(ButtonClear)
	require.False(t, changed)
	require.Equal(t, StateArmed, latch.State())

	_, changed = latch.Apply(Button(42))
	require.False(t, changed)
}

// TestStrings checks log names of states and buttons.
func TestStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "armed", StateArmed.String())
	require.Equal(t, "alert", StateAlert.String())
	require.Equal(t, "unknown", State(7).String())
	require.Equal(t, "alert", ButtonAlert.String())
	require.Equal(t, "clear", ButtonClear.String())
}
