package power

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// windowsRebootTimeout is the delay in seconds for the Windows restart command.
const windowsRebootTimeout = "0"

// ErrUnsupportedOS indicates the current OS is not supported for reboot.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Reboot restarts the board with the built-in tools:
// - Linux/macOS: `shutdown -r now`
// - Windows:     `shutdown.exe -r -f -t 0`
// The command is started asynchronously; the OS takes over the rest.
func Reboot(ctx context.Context) error {
	name, args, err := rebootCommand(runtime.GOOS)
	if err != nil {
		return err
	}

	if err = exec.CommandContext(ctx, name, args...).Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	return nil
}

// rebootCommand returns the restart command for goos.
func rebootCommand(goos string) (string, []string, error) {
	switch goos {
	case "linux", "darwin":
		return "shutdown", []string{"-r", "now"}, nil
	case "windows":
		return "shutdown.exe", []string{"-r", "-f", "-t", windowsRebootTimeout}, nil
	default:
		return "", nil, fmt.Errorf("%s: %w", goos, ErrUnsupportedOS)
	}
}
