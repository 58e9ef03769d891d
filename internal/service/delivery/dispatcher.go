package delivery

import (
	"context"
	"sync"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
	"github.com/oshokin/sos-tracker/internal/logger"
)

// DefaultQueueSize bounds the asynchronous queue.
const DefaultQueueSize = 8

// OutcomeHook observes every report finished by the worker.
type OutcomeHook func(ctx context.Context, report telemetry.Report, outcome Outcome)

// Dispatcher queues reports for one worker goroutine so the caller never
// waits for the network. Reports that do not fit in the queue are dropped.
type Dispatcher struct {
	// sender performs the actual delivery.
	sender Sender
	// queue holds reports waiting for the worker.
	queue chan telemetry.Report
	// hook is called after each delivery.
	hook OutcomeHook
	// wg tracks the worker goroutine.
	wg sync.WaitGroup
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*Dispatcher)

// WithOutcomeHook registers a callback for finished deliveries.
func WithOutcomeHook(hook OutcomeHook) DispatcherOption {
	return func(d *Dispatcher) {
		d.hook = hook
	}
}

// NewDispatcher creates a dispatcher over sender with a queue of size reports.
func NewDispatcher(sender Sender, size int, opts ...DispatcherOption) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}

	d := &Dispatcher{
		sender: sender,
		queue:  make(chan telemetry.Report, size),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start launches the worker. It exits when ctx is done; queued reports are discarded.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx = logger.WithName(ctx, "dispatcher")

	d.wg.Go(func() {
		for {
			select {
			case <-ctx.Done():
				if dropped := len(d.queue); dropped > 0 {
					logger.WarnKV(ctx, "Dropping queued reports on shutdown", "count", dropped)
				}

				return
			case report := <-d.queue:
				outcome := d.sender.Send(ctx, report)
				if d.hook != nil {
					d.hook(ctx, report, outcome)
				}
			}
		}
	})
}

// Send enqueues the report without blocking.
func (d *Dispatcher) Send(_ context.Context, report telemetry.Report) Outcome {
	select {
	case d.queue <- report:
		return Outcome{Queued: true}
	default:
		return Outcome{Err: ErrQueueFull}
	}
}

// Wait blocks until the worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
