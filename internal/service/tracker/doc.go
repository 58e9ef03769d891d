// Package tracker runs the device control loop and wires the tracker process.
//
// One goroutine owns the alert latch, both button debouncers and the periodic
// report timer. Every cycle it first checks whether a periodic report is due,
// then polls the ALERT and CLEAR buttons, then sleeps for one tick. A report
// is built from a freshly decoded GPS fix and handed to a delivery.Sender.
package tracker
