package grpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
)

type callerKey struct{}

type caller struct {
	rateKey string
	addr    string
}

func callerFromContext(ctx context.Context) caller {
	c, _ := ctx.Value(callerKey{}).(caller)
	return c
}

func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}

// CreateCallerInterceptor resolves who is calling the target methods: the
// device key from metadata when present, otherwise the peer address.
func CreateCallerInterceptor(targetMethods []string) grpc.UnaryServerInterceptor {
	targets := common.Reducer(targetMethods,
		func(m map[string]bool, method string) map[string]bool {
			m[method] = true
			return m
		},
		map[string]bool{},
	)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if targets[info.FullMethod] {
			c := caller{addr: peerHost(ctx)}
			c.rateKey = firstMetadata(ctx, metadataDeviceKey)
			if c.rateKey == "" {
				c.rateKey = c.addr
			}
			ctx = context.WithValue(ctx, callerKey{}, c)
		}
		return handler(ctx, req)
	}
}

func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		common.GetLoggerWith(common.LoggerNameGrpcServer).Info("Handled call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
			zap.String("peer", peerHost(ctx)),
		)
		return resp, err
	}
}
