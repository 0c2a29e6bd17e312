package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
	"github.com/vladislavdragonenkov/storefront/internal/service/events"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/identity"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/rest"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// services — собранные доменные сервисы с метриками и событиями.
type services struct {
	catalog   catalog.Service
	customers customer.Directory
}

func buildServices(deps runtimeDependencies, images domain.ImageUploader, shopMetrics *metrics.ShopMetrics, logger *log.Entry) services {
	recorder := events.NewRecorder(deps.outboxRepo, deps.historyRepo, shopMetrics, logger.WithField("component", "events"))

	products := catalog.NewService(deps.productRepo, images, recorder, logger.WithField("component", "catalog"))
	directory := customer.NewDirectory(
		deps.customerRepo,
		products,
		cart.NewEngine(deps.productRepo),
		logger.WithField("component", "customers"),
		customer.WithEvents(recorder),
		customer.WithMetrics(shopMetrics),
	)

	return services{
		catalog:   catalog.NewInstrumented(products, shopMetrics, logger.WithField("component", "catalog")),
		customers: customer.NewInstrumented(directory, shopMetrics, logger.WithField("component", "customers")),
	}
}

// Run поднимает gRPC, REST и сервер метрик вместе с фоновыми воркерами и блокируется до отмены ctx
// или падения любого из компонентов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.WithFields(version.Fields()).Info("starting storefront")

	deps, err := initRuntimeDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	images, imageCloser, err := initImageUploader(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init image storage: %w", err)
	}
	defer closeQuietly(imageCloser, "image storage", logger)

	provider, err := initIdentityProvider(ctx, cfg, logger.WithField("layer", "auth"))
	if err != nil {
		return fmt.Errorf("init identity provider: %w", err)
	}

	// Ошибка Kafka не фатальна: initKafkaProducer её логирует, сервис работает без публикации событий.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	shopMetrics := metrics.NewShopMetrics()
	svc := buildServices(deps, images, shopMetrics, logger)

	shopService := grpcsvc.NewShopService(svc.catalog, svc.customers, deps.historyRepo, deps.idempotencyRepo, logger.WithField("layer", "grpc"))
	grpcServer, grpcHealth := newGRPCServer(shopService, provider, logger)

	restHandler := rest.NewHandler(svc.catalog, svc.customers, provider, identity.DefaultPolicy(), logger.WithField("layer", "rest"))
	restSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: restHandler.Router(), ReadHeaderTimeout: httpReadHeaderTimeout}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}
	healthHandler.RegisterChecker("outbox", outboxBacklogChecker(deps.outboxRepo, cfg.OutboxMaxPending))
	metricsSrv := newMetricsServer(cfg.MetricsAddr, healthHandler)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}
	restLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	metricsLis, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		_ = grpcLis.Close()
		_ = restLis.Close()
		return fmt.Errorf("listen metrics %s: %w", cfg.MetricsAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("gRPC server listening on %s", grpcLis.Addr())
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("REST API listening on %s", restLis.Addr())
		return serveHTTP(restSrv, restLis, "rest")
	})
	g.Go(func() error {
		logger.Infof("metrics available at %s/metrics", metricsLis.Addr())
		return serveHTTP(metricsSrv, metricsLis, "metrics")
	})

	if kafkaProducer != nil {
		worker := outbox.NewWorker(
			deps.outboxRepo,
			kafka.NewOutboxPublisher(kafkaProducer, cfg.EventsTopic),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithMetrics(metrics.NewOutboxMetrics()),
			outbox.WithDLQPublisher(kafka.NewDLQPublisher(kafkaProducer, cfg.DLQTopic)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		g.Go(func() error { return worker.Run(gctx) })
	} else {
		logger.Warn("kafka is not configured, outbox events stay pending")
	}

	cleanup := idempotency.NewCleanupWorker(
		deps.idempotencyRepo,
		idempotency.WithLogger(logger.WithField("component", "idempotency-cleanup")),
		idempotency.WithMetrics(metrics.NewIdempotencyMetricsWithRegisterer(nil)),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	g.Go(func() error { return cleanup.Run(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown requested, stopping servers")
		healthHandler.SetDraining(true)
		stopGRPC(grpcServer, grpcHealth, cfg.ShutdownTimeout, logger)
		shutdownHTTP(restSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func serveHTTP(srv *http.Server, lis net.Listener, name string) error {
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

func closeQuietly(closer io.Closer, name string, logger *log.Entry) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.WithError(err).WithField("resource", name).Warn("failed to close resource")
	}
}
