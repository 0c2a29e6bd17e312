package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

const (
	envGRPCAddr                    = "SHOP_GRPC_ADDR"
	envHTTPAddr                    = "SHOP_HTTP_ADDR"
	envMetricsAddr                 = "SHOP_METRICS_ADDR"
	envStorageDriver               = "SHOP_STORAGE_DRIVER"
	envPostgresDSN                 = "SHOP_POSTGRES_DSN"
	envPostgresAutoMigrate         = "SHOP_POSTGRES_AUTO_MIGRATE"
	envPostgresMaxOpenConns        = "SHOP_POSTGRES_MAX_OPEN_CONNS"
	envPostgresMaxIdleConns        = "SHOP_POSTGRES_MAX_IDLE_CONNS"
	envPostgresConnMaxLifetime     = "SHOP_POSTGRES_CONN_MAX_LIFETIME"
	envKafkaBrokers                = "KAFKA_BROKERS"
	envEventsTopic                 = "SHOP_EVENTS_TOPIC"
	envDLQTopic                    = "SHOP_DLQ_TOPIC"
	envOutboxPollInterval          = "SHOP_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "SHOP_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "SHOP_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay            = "SHOP_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending            = "SHOP_OUTBOX_MAX_PENDING"
	envIdempotencyCleanupInterval  = "SHOP_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "SHOP_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envImageBucket                 = "SHOP_IMAGE_BUCKET"
	envImageBaseURL                = "SHOP_IMAGE_BASE_URL"
	envAuthMode                    = "SHOP_AUTH_MODE"
	envStaticTokens                = "SHOP_STATIC_TOKENS"
	envFirebaseProject             = "SHOP_FIREBASE_PROJECT"
	envIdentityCacheSize           = "SHOP_IDENTITY_CACHE_SIZE"
	envIdentityCacheTTL            = "SHOP_IDENTITY_CACHE_TTL"
	envGCPCredentialsFile          = "SHOP_GCP_CREDENTIALS_FILE"
	envShutdownTimeout             = "SHOP_SHUTDOWN_TIMEOUT"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не валят запуск: остаётся значение по умолчанию, а в warnings попадает причина.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	lower := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.ToLower(strings.TrimSpace(v))
		}
	}
	boolean := func(key string, target *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*target = parsed
	}
	integer := func(key string, target *int, valid func(int) bool, msg string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseInt(v, valid, msg)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*target = parsed
	}
	duration := func(key string, target *time.Duration, valid func(time.Duration) bool, msg string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseDuration(v, valid, msg)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*target = parsed
	}

	positive := func(v int) bool { return v > 0 }
	nonNegative := func(v int) bool { return v >= 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }
	nonNegativeDuration := func(v time.Duration) bool { return v >= 0 }

	str(envGRPCAddr, &cfg.GRPCAddr)
	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	lower(envStorageDriver, &cfg.StorageDriver)
	str(envPostgresDSN, &cfg.PostgresDSN)
	boolean(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	integer(envPostgresMaxOpenConns, &cfg.PostgresMaxOpenConns, positive, "must be > 0")
	integer(envPostgresMaxIdleConns, &cfg.PostgresMaxIdleConns, positive, "must be > 0")
	duration(envPostgresConnMaxLifetime, &cfg.PostgresConnMaxLifetime, positiveDuration, "must be > 0")

	str(envKafkaBrokers, &cfg.KafkaBrokers)
	str(envEventsTopic, &cfg.EventsTopic)
	str(envDLQTopic, &cfg.DLQTopic)
	duration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	integer(envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0")
	integer(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0")
	duration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegativeDuration, "must be >= 0")
	integer(envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegative, "must be >= 0")
	duration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positiveDuration, "must be > 0")
	integer(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize, positive, "must be > 0")

	str(envImageBucket, &cfg.ImageBucket)
	str(envImageBaseURL, &cfg.ImageBaseURL)

	lower(envAuthMode, &cfg.AuthMode)
	str(envStaticTokens, &cfg.StaticTokens)
	str(envFirebaseProject, &cfg.FirebaseProject)
	integer(envIdentityCacheSize, &cfg.IdentityCacheSize, nonNegative, "must be >= 0")
	duration(envIdentityCacheTTL, &cfg.IdentityCacheTTL, positiveDuration, "must be > 0")

	str(envGCPCredentialsFile, &cfg.GCPCredentialsFile)
	duration(envShutdownTimeout, &cfg.ShutdownTimeout, positiveDuration, "must be > 0")

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, msg string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, msg)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, msg string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, msg)
	}
	return value, nil
}
