package grpc

import (
	"net"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/grpc/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the marketplace.
const ServiceName = "marketplace.v1.Marketplace"

// Server is the operational gRPC endpoint: health checking and reflection.
type Server struct {
	server *grpc.Server
	health *health.Server
	logger *logger.Logger
}

func NewServer(appLogger *logger.Logger) *Server {
	log := appLogger.Named("GRPCServer")

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(middleware.LoggingInterceptor(log)),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return &Server{server: server, health: healthServer, logger: log}
}

// Serve marks the service SERVING and blocks until the listener closes.
func (s *Server) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	s.logger.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
	return s.server.Serve(lis)
}

// MarkNotServing tells health checkers to stop routing traffic here.
func (s *Server) MarkNotServing() {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) GracefulStop() {
	s.MarkNotServing()
	s.health.Shutdown()
	s.server.GracefulStop()
	s.logger.Info("gRPC server stopped")
}
