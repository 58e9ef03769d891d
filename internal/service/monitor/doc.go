// Package monitor keeps a read-only picture of the control loop for the status service.
package monitor
