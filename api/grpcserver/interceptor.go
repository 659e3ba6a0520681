package grpcserver

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor logs every unary call with its status code.
func LoggingInterceptor(log logr.Logger) grpc.UnaryServerInterceptor {
	log = log.WithName("grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if err != nil {
			log.Error(err, "call failed", "method", info.FullMethod, "code", code.String(), "took", time.Since(start))
			return resp, err
		}
		log.V(1).Info("call", "method", info.FullMethod, "code", code.String(), "took", time.Since(start))
		return resp, nil
	}
}
