package app

import (
	"fmt"
	"strings"
	"time"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

const (
	AuthModeNone     = "none"
	AuthModeStatic   = "static"
	AuthModeFirebase = "firebase"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// Пул соединений PostgreSQL; idle не может превышать open.
	PostgresMaxOpenConns    int
	PostgresMaxIdleConns    int
	PostgresConnMaxLifetime time.Duration

	// KafkaBrokers — список брокеров через запятую; пусто означает работу без Kafka.
	KafkaBrokers string
	EventsTopic  string
	DLQTopic     string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending — порог backlog, после которого /healthz отдаёт degraded. 0 отключает проверку.
	OutboxMaxPending int

	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	ImageBucket  string
	ImageBaseURL string

	AuthMode          string
	StaticTokens      string
	FirebaseProject   string
	IdentityCacheSize int
	IdentityCacheTTL  time.Duration

	GCPCredentialsFile string
	ShutdownTimeout    time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:                    ":50051",
		HTTPAddr:                    ":8080",
		MetricsAddr:                 ":9090",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		PostgresMaxOpenConns:        25,
		PostgresMaxIdleConns:        25,
		PostgresConnMaxLifetime:     30 * time.Minute,
		EventsTopic:                 "shop.events",
		DLQTopic:                    "shop.events.dlq",
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            100 * time.Millisecond,
		OutboxMaxPending:            1000,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
		AuthMode:                    AuthModeNone,
		IdentityCacheSize:           1024,
		IdentityCacheTTL:            5 * time.Minute,
		ShutdownTimeout:             5 * time.Second,
	}
}

// Validate проверяет согласованность настроек до старта компонентов.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres dsn is required for storage driver %q", c.StorageDriver)
		}
		if c.PostgresMaxIdleConns > c.PostgresMaxOpenConns {
			return fmt.Errorf("postgres max idle conns %d exceeds max open conns %d", c.PostgresMaxIdleConns, c.PostgresMaxOpenConns)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}

	switch c.AuthMode {
	case AuthModeNone, "":
	case AuthModeStatic:
		if strings.TrimSpace(c.StaticTokens) == "" {
			return fmt.Errorf("static tokens are required for auth mode %q", c.AuthMode)
		}
	case AuthModeFirebase:
		if strings.TrimSpace(c.FirebaseProject) == "" {
			return fmt.Errorf("firebase project is required for auth mode %q", c.AuthMode)
		}
	default:
		return fmt.Errorf("unsupported auth mode %q", c.AuthMode)
	}
	return nil
}

// splitList разбирает список через запятую, отбрасывая пустые элементы и пробелы.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
