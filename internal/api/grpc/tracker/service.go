package tracker

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "sostracker.v1.StatusService"
	// GetStatusFullMethod is the full method name of GetStatus.
	GetStatusFullMethod = "/" + ServiceName + "/GetStatus"
)

// StatusServer is the server API of the status service.
type StatusServer interface {
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// StatusServiceDesc describes the status service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level values in grpc-go.
var StatusServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler:    getStatusHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sostracker/v1/status.proto",
}

// RegisterStatusServer registers srv on registrar.
func RegisterStatusServer(registrar grpc.ServiceRegistrar, srv StatusServer) {
	registrar.RegisterService(&StatusServiceDesc, srv)
}

//nolint:revive // Signature is fixed by grpc.MethodHandler.
func getStatusHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(StatusServer).GetStatus(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStatusFullMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServer).GetStatus(ctx, req.(*emptypb.Empty)) //nolint:forcetypeassert // Same as above.
	}

	return interceptor(ctx, in, info, handler)
}
