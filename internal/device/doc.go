// Package device exposes the tracker hardware as small capability interfaces:
// a Receiver draining the GPS serial line, two active-low Buttons and an
// Indicator output, plus the hardware address used as device identity.
//
// Linux builds use the GPIO character device (go-gpiocdev) and raw termios
// (x/sys/unix); other platforms get stubs that fail at open time.
package device
