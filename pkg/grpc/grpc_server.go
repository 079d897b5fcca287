package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/iot"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const (
	metadataAuthorization = "authorization"
	metadataDeviceKey     = "x-device-key"
)

type IOTServer struct {
	Iot *iot.IOT
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (s *IOTServer) Ingest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	body, err := req.MarshalJSON()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid payload: %v", err)
	}

	caller := callerFromContext(ctx)
	result, err := s.Iot.Telemetry.Ingest(ctx, models.IngestRequest{
		Header:     firstMetadata(ctx, metadataAuthorization),
		Body:       body,
		RateKey:    caller.rateKey,
		RemoteAddr: caller.addr,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]any{
		"status":    "ok",
		"id":        float64(result.ID),
		"server_ts": result.ServerTS.Format(time.RFC3339Nano),
	})
}

// toStatus maps domain errors onto gRPC codes. Messages of domain errors are
// safe to return, anything else is hidden behind codes.Internal.
func toStatus(err error) error {
	e, ok := iot.AsError(err)
	if !ok {
		common.GetLoggerWith(common.LoggerNameGrpcServer).Error("Request failed", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}

	var code codes.Code
	switch e.Kind {
	case iot.ErrorKindMalformedRequest, iot.ErrorKindPayloadTooLarge:
		code = codes.InvalidArgument
	case iot.ErrorKindUnauthenticated:
		code = codes.Unauthenticated
	case iot.ErrorKindForbidden:
		code = codes.PermissionDenied
	case iot.ErrorKindNotFound:
		code = codes.NotFound
	case iot.ErrorKindRateLimited:
		code = codes.ResourceExhausted
	case iot.ErrorKindStorageLimitExceeded:
		code = codes.FailedPrecondition
	default:
		code = codes.Internal
	}
	return status.Error(code, e.Message)
}

// NewServer builds a grpc.Server with the ingest service and its interceptors.
func (s *IOTServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		LoggingInterceptor(),
		CreateCallerInterceptor([]string{IngestFullMethod}),
	))
	server := grpc.NewServer(opts...)
	RegisterDeviceIngestServer(server, s)
	return server
}

// ListenAndServe serves until ctx is cancelled, then stops gracefully.
func (s *IOTServer) ListenAndServe(ctx context.Context, addr string) error {
	logger := common.GetLoggerWith(common.LoggerNameGrpcServer)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := s.NewServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", addr))
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("gRPC server shutting down")
	server.GracefulStop()
	return nil
}
