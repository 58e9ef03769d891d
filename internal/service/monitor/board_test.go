package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
)

func TestBoard(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	board := NewBoard("aa:bb:cc:dd:ee:ff", started)

	snapshot := board.Snapshot()
	require.Equal(t, "aa:bb:cc:dd:ee:ff", snapshot.DeviceID)
	require.Equal(t, started, snapshot.StartedAt)
	require.False(t, snapshot.HasFix)

	fixAt := started.Add(5 * time.Second)
	board.RecordFix(telemetry.Fix{Latitude: 48.1173, Longitude: 11.5167}, fixAt)
	board.SetAlert(true)
	board.RecordDelivery("success", true, fixAt)
	board.RecordDelivery("failed: boom", false, fixAt.Add(time.Second))

	snapshot = board.Snapshot()
	require.True(t, snapshot.Alert)
	require.True(t, snapshot.HasFix)
	require.Equal(t, fixAt, snapshot.FixAt)
	require.InDelta(t, 48.1173, snapshot.Fix.Latitude, 1e-9)
	require.Equal(t, uint64(1), snapshot.Delivered)
	require.Equal(t, uint64(1), snapshot.Failed)
	require.Equal(t, "failed: boom", snapshot.LastOutcome)
	require.Equal(t, fixAt.Add(time.Second), snapshot.LastReportAt)
}

// TestBoard_ConcurrentReaders is meant for the race detector.
func TestBoard_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	board := NewBoard("aa:bb:cc:dd:ee:ff", time.Now())

	var wg sync.WaitGroup

	for range 4 {
		wg.Go(func() {
			for range 100 {
				_ = board.Snapshot()
			}
		})
	}

	for i := range 100 {
		board.SetAlert(i%2 == 0)
		board.RecordDelivery("success", true, time.Now())
	}

	wg.Wait()

	require.Equal(t, uint64(100), board.Snapshot().Delivered)
}
