// Package delivery sends telemetry reports to the collection endpoint.
//
// Client performs a bounded number of HTTP POST attempts per report and
// returns an Outcome instead of an error: a report that cannot be delivered
// is dropped after the last attempt. Dispatcher optionally moves delivery
// onto a single worker goroutine fed by a bounded queue.
package delivery
