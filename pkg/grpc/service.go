package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The ingest service carries the same JSON document devices POST over HTTP,
// as a google.protobuf.Struct.
const (
	ServiceName = "telemetry.v1.DeviceIngest"

	IngestFullMethod = "/" + ServiceName + "/Ingest"
)

type DeviceIngestServer interface {
	Ingest(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func ingestHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DeviceIngestServer).Ingest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: IngestFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DeviceIngestServer).Ingest(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var DeviceIngestServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DeviceIngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ingest",
			Handler:    ingestHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "telemetry/v1/ingest.proto",
}

func RegisterDeviceIngestServer(s grpc.ServiceRegistrar, srv DeviceIngestServer) {
	s.RegisterService(&DeviceIngestServiceDesc, srv)
}

type DeviceIngestClient struct {
	cc grpc.ClientConnInterface
}

func NewDeviceIngestClient(cc grpc.ClientConnInterface) *DeviceIngestClient {
	return &DeviceIngestClient{cc: cc}
}

func (c *DeviceIngestClient) Ingest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, IngestFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
