package tracker

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/sos-tracker/internal/service/monitor"
)

// Provider supplies status snapshots.
type Provider interface {
	Snapshot() monitor.Snapshot
}

// Server implements StatusServer over a Provider.
type Server struct {
	// provider is read on every call; the server never writes to it.
	provider Provider
}

// NewServer wires provider into a gRPC handler.
func NewServer(provider Provider) *Server {
	return &Server{
		provider: provider,
	}
}

// GetStatus returns the current tracker status.
func (s *Server) GetStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.provider == nil {
		return nil, status.Error(codes.Unavailable, "tracker is not running")
	}

	result, err := ToStruct(s.provider.Snapshot())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return result, nil
}

// ToStruct converts a snapshot to its wire form. Unset times become empty strings.
func ToStruct(snapshot monitor.Snapshot) (*structpb.Struct, error) {
	fields := map[string]any{
		"device_id":      snapshot.DeviceID,
		"alert":          snapshot.Alert,
		"has_fix":        snapshot.HasFix,
		"last_fix_at":    formatTime(snapshot.FixAt),
		"last_report_at": formatTime(snapshot.LastReportAt),
		"last_outcome":   snapshot.LastOutcome,
		"delivered":      snapshot.Delivered,
		"failed":         snapshot.Failed,
		"started_at":     formatTime(snapshot.StartedAt),
	}

	if snapshot.HasFix {
		fields["last_fix_latitude"] = snapshot.Fix.Latitude
		fields["last_fix_longitude"] = snapshot.Fix.Longitude
	}

	return structpb.NewStruct(fields)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}
