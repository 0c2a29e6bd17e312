package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level, format string) error {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if strings.TrimSpace(level) == "" {
		log.SetLevel(log.InfoLevel)
		return nil
	}
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		log.SetLevel(log.InfoLevel)
		return err
	}
	log.SetLevel(parsed)
	return nil
}

// resolveSecrets подставляет значения sm://-ссылок из Secret Manager.
func resolveSecrets(ctx context.Context, cfg *app.Config) error {
	if !app.HasSecretRefs(*cfg) {
		return nil
	}
	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.GCPCredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	access, closer, err := app.NewSecretManagerAccess(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	return app.ResolveSecrets(ctx, cfg, access)
}

func main() {
	if err := setupLogger(os.Getenv("SHOP_LOG_LEVEL"), os.Getenv("SHOP_LOG_FORMAT")); err != nil {
		log.WithError(err).Warn("invalid SHOP_LOG_LEVEL, using info")
	}

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := resolveSecrets(ctx, &cfg); err != nil {
		log.WithError(err).Fatal("failed to resolve secrets")
	}

	log.WithFields(version.Fields()).WithFields(log.Fields{
		"grpc_addr":      cfg.GRPCAddr,
		"http_addr":      cfg.HTTPAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"auth_mode":      cfg.AuthMode,
	}).Info("starting shop service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("shop service exited with error")
	}

	log.Info("shop service stopped")
}
