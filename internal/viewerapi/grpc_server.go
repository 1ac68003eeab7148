package viewerapi

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
)

// NewGRPCServer builds a gRPC server with the viewer's interceptor chain:
// request IDs, tracing, metrics, then status mapping closest to the handler
// so metrics see the mapped code. collector may be nil.
func NewGRPCServer(log logging.Logger, collector *observability.ViewerCollector, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}
	interceptors = append(interceptors, StatusUnaryServerInterceptor())

	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}
	return grpc.NewServer(append(base, opts...)...)
}
