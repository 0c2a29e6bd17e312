package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/identity"
	"github.com/vladislavdragonenkov/storefront/internal/version"
	shopv1 "github.com/vladislavdragonenkov/storefront/proto/shop/v1"
)

const httpReadHeaderTimeout = 5 * time.Second

// grpcServerMetrics возвращает пакетный коллектор go-grpc-prometheus. Он регистрируется в
// prometheus.DefaultRegisterer при импорте пакета, поэтому попадает в /metrics metrics-сервера.
func grpcServerMetrics() *promgrpc.ServerMetrics {
	promgrpc.EnableHandlingTimeHistogram()
	return promgrpc.DefaultServerMetrics
}

// newGRPCServer собирает gRPC-сервер с метриками, проверкой токенов и grpc health.
func newGRPCServer(service *grpcsvc.ShopService, provider domain.IdentityProvider, logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := grpcServerMetrics()
	interceptors := []grpc.UnaryServerInterceptor{grpcMetrics.UnaryServerInterceptor()}
	if provider != nil {
		interceptors = append(interceptors, grpcsvc.AuthInterceptor(provider, identity.DefaultPolicy(), logger.WithField("component", "grpc-auth")))
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	shopv1.RegisterShopServiceServer(server, service)
	grpcMetrics.InitializeMetrics(server)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(shopv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}

// newMetricsServer отдаёт /metrics для Prometheus и health-пробы.
func newMetricsServer(addr string, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(version.String()))
	})
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: httpReadHeaderTimeout}
}

// outboxBacklogChecker сообщает degraded, когда backlog outbox превышает maxPending.
func outboxBacklogChecker(repo domain.OutboxRepository, maxPending int) healthcheck.Checker {
	return healthcheck.DegradedChecker{Checker: healthcheck.NewFuncChecker("outbox", func(ctx context.Context) error {
		stats, err := repo.Stats(ctx)
		if err != nil {
			return err
		}
		if stats.PendingCount > maxPending {
			return fmt.Errorf("outbox backlog %d exceeds %d", stats.PendingCount, maxPending)
		}
		return nil
	})}
}

// stopGRPC останавливает сервер мягко, а по истечении timeout принудительно.
func stopGRPC(server *grpc.Server, healthServer *health.Server, timeout time.Duration, logger *log.Entry) {
	if server == nil {
		return
	}
	if healthServer != nil {
		healthServer.Shutdown()
	}
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop timed out, forcing grpc server stop")
		server.Stop()
	}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).WithField("addr", srv.Addr).Warn("http shutdown with error")
	}
}
