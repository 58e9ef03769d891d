package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another process with the same executable name exists.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lister returns the running processes.
type Lister func() ([]ps.Process, error)

// EnsureSingle fails when another process runs the current executable.
func EnsureSingle() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	return Check(ps.Processes, filepath.Base(executable), os.Getpid())
}

// Check looks for a process other than self whose executable is name.
func Check(list Lister, name string, self int) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if process.Executable() != name {
			continue
		}

		return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, name, process.Pid())
	}

	return nil
}
