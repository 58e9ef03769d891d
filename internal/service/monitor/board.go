package monitor

import (
	"sync"
	"time"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
)

// Snapshot is a copy of the tracker status at one moment.
type Snapshot struct {
	// DeviceID is the hardware address reported to the endpoint.
	DeviceID string
	// Alert is true while the emergency alert is latched.
	Alert bool
	// HasFix is set once a position has been decoded.
	HasFix bool
	// Fix is the most recent decoded position.
	Fix telemetry.Fix
	// FixAt is when Fix was decoded.
	FixAt time.Time
	// LastReportAt is when the last report finished.
	LastReportAt time.Time
	// LastOutcome labels the last delivery result.
	LastOutcome string
	// Delivered counts acknowledged reports.
	Delivered uint64
	// Failed counts dropped reports.
	Failed uint64
	// StartedAt is when the loop started.
	StartedAt time.Time
}

// Board collects status published by the loop and the delivery worker.
// The loop writes, readers only get copies.
type Board struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewBoard creates a board for deviceID.
func NewBoard(deviceID string, startedAt time.Time) *Board {
	return &Board{
		snapshot: Snapshot{
			DeviceID:  deviceID,
			StartedAt: startedAt,
		},
	}
}

// Snapshot returns a copy of the current status.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.snapshot
}

// SetAlert records the latch state.
func (b *Board) SetAlert(alert bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snapshot.Alert = alert
}

// RecordFix records a decoded position.
func (b *Board) RecordFix(fix telemetry.Fix, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snapshot.HasFix = true
	b.snapshot.Fix = fix
	b.snapshot.FixAt = at
}

// RecordDelivery records a finished delivery. Callers skip queued outcomes.
func (b *Board) RecordDelivery(outcome string, succeeded bool, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snapshot.LastReportAt = at
	b.snapshot.LastOutcome = outcome

	if succeeded {
		b.snapshot.Delivered++
	} else {
		b.snapshot.Failed++
	}
}
