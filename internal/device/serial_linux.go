//go:build linux

package device

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	// serialChunkSize is the size of one read from the tty.
	serialChunkSize = 1024
	// maxDrainBytes caps one ReadAvailable call so a chatty receiver cannot stall the loop.
	maxDrainBytes = 16 * serialChunkSize
)

// SerialReceiver drains a GPS receiver attached to a tty in raw, non-blocking mode.
type SerialReceiver struct {
	// fd is the open tty descriptor.
	fd int
	// path is kept for error messages.
	path string
}

// OpenSerialReceiver opens path at the given baud in raw 8N1 mode where a read
// returns immediately with whatever is buffered.
func OpenSerialReceiver(path string, baud int) (*SerialReceiver, error) {
	speed, err := baudToUnix(baud)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}

	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("get termios %s: %w", path, err)
	}

	// Raw mode: no line editing, no echo, no translation, 8 data bits, no parity.
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	t.Ispeed = speed
	t.Ospeed = speed

	// VMIN=0, VTIME=0: read returns at once, possibly with zero bytes.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return nil, fmt.Errorf("set termios %s: %w", path, err)
	}

	ok = true

	return &SerialReceiver{fd: fd, path: path}, nil
}

// ReadAvailable returns everything buffered by the tty, up to maxDrainBytes.
func (r *SerialReceiver) ReadAvailable() ([]byte, error) {
	var (
		out   []byte
		chunk [serialChunkSize]byte
	)

	for len(out) < maxDrainBytes {
		n, err := unix.Read(r.fd, chunk[:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}

			if errors.Is(err, unix.EAGAIN) {
				break
			}

			return out, fmt.Errorf("read serial %s: %w", r.path, err)
		}

		if n <= 0 {
			break
		}

		out = append(out, chunk[:n]...)
	}

	return out, nil
}

// Close releases the tty.
func (r *SerialReceiver) Close() error {
	if err := unix.Close(r.fd); err != nil {
		return fmt.Errorf("close serial %s: %w", r.path, err)
	}

	return nil
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
	}
}
