package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// runtimeDependencies — репозитории выбранного хранилища.
type runtimeDependencies struct {
	productRepo     domain.ProductRepository
	customerRepo    domain.CustomerRepository
	outboxRepo      domain.OutboxRepository
	historyRepo     domain.HistoryRepository
	idempotencyRepo domain.IdempotencyRepository
	storageChecker  healthcheck.Checker
	closeFn         func() error
}

func (d runtimeDependencies) close() error {
	if d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

// initRuntimeDependencies создаёт репозитории по cfg.StorageDriver.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Info("using in-memory storage")
		return runtimeDependencies{
			productRepo:     memory.NewProductRepository(),
			customerRepo:    memory.NewCustomerRepository(),
			outboxRepo:      memory.NewOutboxRepository(),
			historyRepo:     memory.NewHistoryRepository(),
			idempotencyRepo: memory.NewIdempotencyRepository(),
		}, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return runtimeDependencies{}, fmt.Errorf("postgres dsn is required for storage driver %q", cfg.StorageDriver)
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN,
			postgres.WithPool(postgres.PoolConfig{
				MaxOpenConns:    cfg.PostgresMaxOpenConns,
				MaxIdleConns:    cfg.PostgresMaxIdleConns,
				ConnMaxLifetime: cfg.PostgresConnMaxLifetime,
			}),
			postgres.WithLogger(logger.WithField("component", "postgres")),
		)
		if err != nil {
			return runtimeDependencies{}, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		logger.Info("using postgres storage")
		return runtimeDependencies{
			productRepo:     postgres.NewProductRepository(store),
			customerRepo:    postgres.NewCustomerRepository(store),
			outboxRepo:      postgres.NewOutboxRepository(store),
			historyRepo:     postgres.NewHistoryRepository(store),
			idempotencyRepo: postgres.NewIdempotencyRepository(store),
			storageChecker:  healthcheck.NewFuncChecker("postgres", store.Check),
			closeFn:         store.Close,
		}, nil
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
