// Package telemetry holds the position Fix and the immutable Report sent to
// the collection endpoint, together with its JSON wire form.
package telemetry
