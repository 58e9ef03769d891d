package tracker

import (
	"context"
	"time"

	"github.com/oshokin/sos-tracker/internal/device"
	"github.com/oshokin/sos-tracker/internal/domain/alert"
	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
	"github.com/oshokin/sos-tracker/internal/logger"
	"github.com/oshokin/sos-tracker/internal/nmea"
	"github.com/oshokin/sos-tracker/internal/service/delivery"
	"github.com/oshokin/sos-tracker/internal/service/monitor"
)

const (
	// DefaultReportInterval is the minimum time between periodic reports.
	DefaultReportInterval = 5 * time.Second
	// DefaultTick is the pause at the end of every cycle.
	DefaultTick = 100 * time.Millisecond
)

// Hardware is what the loop reads from and drives.
type Hardware struct {
	// Receiver yields raw NMEA bytes.
	Receiver device.Receiver
	// AlertButton latches the alert.
	AlertButton device.Button
	// ClearButton clears the alert.
	ClearButton device.Button
	// Indicator mirrors the latch.
	Indicator device.Indicator
}

// LoopOptions configures the loop.
type LoopOptions struct {
	// DeviceID is sent as mac_address in every report.
	DeviceID string
	// ReportInterval is the minimum time between periodic reports.
	ReportInterval time.Duration
	// Debounce is the per-button debounce window.
	Debounce time.Duration
	// Tick is the pause at the end of every cycle.
	Tick time.Duration
	// Sender delivers reports.
	Sender delivery.Sender
	// Board receives status updates, may be nil.
	Board *monitor.Board
}

// Loop is the device control loop. It is not safe for concurrent use; Run owns it.
type Loop struct {
	hw   Hardware
	opts LoopOptions

	latch          alert.Latch
	alertDebouncer *alert.Debouncer
	clearDebouncer *alert.Debouncer
	// lastPeriodic is zero until the first periodic check, so the first cycle reports.
	lastPeriodic time.Time
}

// NewLoop creates a loop in the Armed state.
func NewLoop(hw Hardware, opts LoopOptions) *Loop {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = DefaultReportInterval
	}

	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}

	return &Loop{
		hw:             hw,
		opts:           opts,
		alertDebouncer: alert.NewDebouncer(alert.ButtonAlert, opts.Debounce),
		clearDebouncer: alert.NewDebouncer(alert.ButtonClear, opts.Debounce),
	}
}

// State returns the current latch state.
func (l *Loop) State() alert.State {
	return l.latch.State()
}

// Run cycles until ctx is canceled. Hardware and delivery errors are logged and never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "tracker")

	l.setIndicator(ctx, false)

	logger.InfoKV(ctx, "Control loop started",
		"device_id", l.opts.DeviceID,
		"report_interval", l.opts.ReportInterval.String(),
		"tick", l.opts.Tick.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoKV(ctx, "Control loop stopped", "state", l.latch.State().String())

			return nil
		case <-timer.C:
		}

		l.cycle(ctx, time.Now())

		timer.Reset(l.opts.Tick)
	}
}

// cycle performs one pass: periodic report first, then ALERT, then CLEAR.
func (l *Loop) cycle(ctx context.Context, now time.Time) {
	if l.lastPeriodic.IsZero() || now.Sub(l.lastPeriodic) > l.opts.ReportInterval {
		l.lastPeriodic = now
		l.report(ctx, now, "periodic")
	}

	l.pollButton(ctx, now, l.hw.AlertButton, l.alertDebouncer)
	l.pollButton(ctx, now, l.hw.ClearButton, l.clearDebouncer)
}

// pollButton feeds one sample through the debouncer and the latch.
func (l *Loop) pollButton(ctx context.Context, now time.Time, button device.Button, debouncer *alert.Debouncer) {
	if button == nil {
		return
	}

	pressed, err := button.Pressed()
	if err != nil {
		logger.WarnKV(ctx, "Button read failed, treating as released", "error", err)

		pressed = false
	}

	edge, ok := debouncer.Poll(pressed, now)
	if !ok {
		return
	}

	transition, changed := l.latch.Apply(edge.Button)
	if !changed {
		logger.DebugKV(ctx, "Button press ignored", "button", edge.Button.String(), "state", l.latch.State().String())

		return
	}

	logger.InfoKV(ctx, "Alert state changed",
		"from", transition.From.String(),
		"to", transition.To.String(),
		"button", transition.Trigger.String())

	alerting := transition.To == alert.StateAlert

	l.setIndicator(ctx, alerting)

	if l.opts.Board != nil {
		l.opts.Board.SetAlert(alerting)
	}

	l.report(ctx, now, "transition")
}

// report decodes a fresh fix and sends it with the current latch state.
// Without a fix nothing is sent; Decode only returns fixes that pass Fix.Valid.
func (l *Loop) report(ctx context.Context, now time.Time, reason string) {
	raw, err := l.hw.Receiver.ReadAvailable()
	if err != nil {
		logger.WarnKV(ctx, "GPS read failed", "error", err)
	}

	fix, ok := nmea.Decode(raw)
	if !ok {
		logger.DebugKV(ctx, "No GPS fix, report skipped", "reason", reason)

		return
	}

	if l.opts.Board != nil {
		l.opts.Board.RecordFix(fix, now)
	}

	report := telemetry.NewReport(fix, l.opts.DeviceID, l.latch.IsAlert())

	outcome := l.opts.Sender.Send(ctx, report)
	if outcome.Queued {
		logger.DebugKV(ctx, "Report queued", "reason", reason)

		return
	}

	recordOutcome(ctx, l.opts.Board, report, outcome)
}

func (l *Loop) setIndicator(ctx context.Context, on bool) {
	if l.hw.Indicator == nil {
		return
	}

	if err := l.hw.Indicator.Set(on); err != nil {
		logger.ErrorKV(ctx, "Indicator write failed", "on", on, "error", err)
	}
}

// recordOutcome logs a finished delivery and publishes it on board.
func recordOutcome(ctx context.Context, board *monitor.Board, report telemetry.Report, outcome delivery.Outcome) {
	if outcome.Failed() {
		logger.ErrorKV(ctx, "Report dropped",
			"sos", report.Alert(),
			"attempts", outcome.Attempts,
			"error", outcome.Err)
	} else {
		logger.InfoKV(ctx, "Report delivered",
			"sos", report.Alert(),
			"latitude", report.Fix().Latitude,
			"longitude", report.Fix().Longitude,
			"attempts", outcome.Attempts)
	}

	if board != nil {
		board.RecordDelivery(outcome.String(), outcome.Succeeded(), time.Now())
	}
}
