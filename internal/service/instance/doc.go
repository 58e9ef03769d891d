// Package instance keeps a second tracker process from grabbing the GPIO lines
// and the serial port while one is already running.
package instance
