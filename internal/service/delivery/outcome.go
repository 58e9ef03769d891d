package delivery

import (
	"context"
	"errors"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
)

// Sender hands a report to the endpoint, directly or through a queue.
type Sender interface {
	Send(ctx context.Context, report telemetry.Report) Outcome
}

var (
	// ErrTransport wraps network level failures.
	ErrTransport = errors.New("transport failure")
	// ErrUnexpectedStatus is returned when the endpoint answers with anything but 200.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrAttemptsExhausted is returned once every attempt has failed.
	ErrAttemptsExhausted = errors.New("delivery attempts exhausted")
	// ErrQueueFull is returned when the asynchronous queue has no room.
	ErrQueueFull = errors.New("delivery queue is full")
)

// Outcome describes what happened to one report.
type Outcome struct {
	// Attempts is the number of POSTs performed.
	Attempts int
	// StatusCode is the HTTP status of the last response, 0 when none arrived.
	StatusCode int
	// Queued is set when the report was accepted for asynchronous delivery.
	Queued bool
	// Err holds the failure reason.
	Err error
}

// Succeeded reports whether the endpoint acknowledged the report.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && !o.Queued
}

// Failed reports whether the report was dropped.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// String returns a short label for logs and the status service.
func (o Outcome) String() string {
	switch {
	case o.Failed():
		return "failed: " + o.Err.Error()
	case o.Queued:
		return "queued"
	default:
		return "success"
	}
}
