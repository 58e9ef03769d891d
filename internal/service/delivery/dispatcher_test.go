package delivery

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
)

// gatedSender blocks every delivery until release is closed.
type gatedSender struct {
	release chan struct{}
	mu      sync.Mutex
	sent    []telemetry.Report
}

func (s *gatedSender) Send(_ context.Context, report telemetry.Report) Outcome {
	<-s.release

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, report)

	return Outcome{Attempts: 1, StatusCode: 200}
}

// TestDispatcher_DropsWhenFull accepts reports up to the queue size and drops the rest.
func TestDispatcher_DropsWhenFull(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		sender := &gatedSender{release: make(chan struct{})}

		var (
			mu       sync.Mutex
			outcomes []Outcome
		)

		dispatcher := NewDispatcher(sender, 1, WithOutcomeHook(func(_ context.Context, _ telemetry.Report, o Outcome) {
			mu.Lock()
			defer mu.Unlock()

			outcomes = append(outcomes, o)
		}))
		dispatcher.Start(ctx)

		first := telemetry.NewReport(telemetry.Fix{Latitude: 1, Longitude: 2}, "aa:bb:cc:dd:ee:ff", false)
		second := telemetry.NewReport(telemetry.Fix{Latitude: 3, Longitude: 4}, "aa:bb:cc:dd:ee:ff", true)
		third := telemetry.NewReport(telemetry.Fix{Latitude: 5, Longitude: 6}, "aa:bb:cc:dd:ee:ff", false)

		require.True(t, dispatcher.Send(ctx, first).Queued)

		// The worker picks up the first report and blocks inside the sender.
		synctest.Wait()

		require.True(t, dispatcher.Send(ctx, second).Queued)

		dropped := dispatcher.Send(ctx, third)
		require.True(t, dropped.Failed())
		require.ErrorIs(t, dropped.Err, ErrQueueFull)

		close(sender.release)
		synctest.Wait()

		cancel()
		dispatcher.Wait()

		require.Equal(t, []telemetry.Report{first, second}, sender.sent)
		require.Len(t, outcomes, 2)

		for _, o := range outcomes {
			require.True(t, o.Succeeded())
		}
	})
}

// TestOutcome_String labels outcomes for logs.
func TestOutcome_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "queued", Outcome{Queued: true}.String())
	require.Equal(t, "failed: delivery queue is full", Outcome{Err: ErrQueueFull}.String())
	require.False(t, Outcome{Queued: true}.Succeeded())
}
