package instance

import (
	"errors"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

func listOf(processes ...ps.Process) Lister {
	return func() ([]ps.Process, error) {
		return processes, nil
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		list    Lister
		wantErr error
	}{
		{
			name: "only self",
			list: listOf(fakeProcess{pid: 100, executable: "sos-tracker"}, fakeProcess{pid: 1, executable: "systemd"}),
		},
		{
			name:    "second tracker",
			list:    listOf(fakeProcess{pid: 100, executable: "sos-tracker"}, fakeProcess{pid: 42, executable: "sos-tracker"}),
			wantErr: ErrAlreadyRunning,
		},
		{
			name: "status client does not count",
			list: listOf(fakeProcess{pid: 100, executable: "sos-tracker"}, fakeProcess{pid: 43, executable: "sos-status"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Check(tt.list, "sos-tracker", 100)
			if tt.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			require.Contains(t, err.Error(), "pid 42")
		})
	}
}

func TestCheck_ListFailure(t *testing.T) {
	t.Parallel()

	errDenied := errors.New("permission denied")

	err := Check(func() ([]ps.Process, error) { return nil, errDenied }, "sos-tracker", 1)
	require.ErrorIs(t, err, errDenied)
}
