// Package grpc serves the relay's gRPC health endpoint.
package grpc

import (
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"chat-relay/internal/logger"
	"chat-relay/internal/observability"
)

// ServiceName is the health service name reported for the relay.
const ServiceName = "chat-relay.Relay"

// Server wraps a grpc.Server with the standard health service registered.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    logger.Logger
}

// NewServer builds the server. Every service starts NOT_SERVING until
// SetServing is called.
func NewServer(log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, h)
	return &Server{srv: srv, health: h, log: log}
}

// SetServing flips the overall and relay status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks accepting connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc server listening", logger.String("addr", lis.Addr().String()))
	return s.srv.Serve(lis)
}

// Shutdown marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
