// Package status serves the read-only gRPC status listener of the tracker and
// implements the sos-status command that queries it.
package status
