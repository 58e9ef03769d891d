package status

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/sos-tracker/internal/api/grpc/tracker"
	"github.com/oshokin/sos-tracker/internal/logger"
)

// Serve listens on address and answers status calls from provider until ctx is canceled.
func Serve(ctx context.Context, address string, provider api.Provider) error {
	ctx = logger.WithName(ctx, "status")

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	return serve(ctx, lis, provider)
}

// serve runs the gRPC server on an existing listener.
func serve(ctx context.Context, lis net.Listener, provider api.Provider) error {
	grpcServer := grpc.NewServer()
	api.RegisterStatusServer(grpcServer, api.NewServer(provider))

	logger.InfoKV(ctx, "Status service listening", "listen_address", lis.Addr().String())

	served := make(chan error, 1)

	go func() {
		served <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-served:
		// Serve gave up on its own; nothing is left running.
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down status service")
	grpcServer.GracefulStop()

	// Serve returns once GracefulStop has drained the connections.
	if err := <-served; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	logger.Info(ctx, "Status service stopped")

	return nil
}
