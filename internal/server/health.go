package server

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/adapterinfo"
)

// ServiceName is the health service name reported alongside the overall status.
var ServiceName = "nupi.adapter." + adapterinfo.Info.Slug

// Health exposes the standard gRPC health service so supervisors can check
// the adapter while stdin/stdout carry the audio protocol.
type Health struct {
	grpc   *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// NewHealth returns a Health server reporting NOT_SERVING.
func NewHealth(logger *slog.Logger) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	h := &Health{
		grpc:   grpcServer,
		health: healthServer,
		log:    logger.With("component", "server.health"),
	}
	h.SetServing(false)
	return h
}

// SetServing flips the overall and per-service status.
func (h *Health) SetServing(serving bool) {
	status := healthgrpc.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthgrpc.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
	h.log.Debug("health status changed", "status", status.String())
}

// Serve blocks serving on lis until Stop is called.
func (h *Health) Serve(lis net.Listener) error {
	h.log.Info("health server listening", "addr", lis.Addr().String())
	if err := h.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop reports NOT_SERVING and stops gracefully, forcing the stop after timeout.
func (h *Health) Stop(timeout time.Duration) {
	h.SetServing(false)
	h.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		h.grpc.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(timeout):
		h.log.Warn("graceful stop timed out, forcing stop")
		h.grpc.Stop()
	}
}
