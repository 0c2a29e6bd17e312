package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

const defaultConnTimeout = 5 * time.Second

var errStoreNotInitialized = errors.New("postgres store is not initialized")

// PoolConfig задаёт размеры пула database/sql. Нулевые поля заменяются значениями DefaultPoolConfig.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig — пул для одного инстанса shop-service.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

func (c PoolConfig) withDefaults() PoolConfig {
	def := DefaultPoolConfig()
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = def.MaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = def.MaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = def.ConnMaxIdleTime
	}
	return c
}

// Option настраивает Store при открытии.
type Option func(*Store)

// WithPool задаёт параметры пула соединений.
func WithPool(pool PoolConfig) Option {
	return func(s *Store) {
		s.pool = pool.withDefaults()
	}
}

// WithLogger задаёт логгер для сообщений о подключении и миграциях.
func WithLogger(logger *log.Entry) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db     *sql.DB
	pool   PoolConfig
	logger *log.Entry
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	store := &Store{
		pool:   DefaultPoolConfig(),
		logger: log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(store)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(store.pool.MaxOpenConns)
	db.SetMaxIdleConns(store.pool.MaxIdleConns)
	db.SetConnMaxLifetime(store.pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(store.pool.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store.db = db
	store.logger.WithFields(log.Fields{
		"max_open_conns":     store.pool.MaxOpenConns,
		"max_idle_conns":     store.pool.MaxIdleConns,
		"conn_max_lifetime":  store.pool.ConnMaxLifetime.String(),
		"conn_max_idle_time": store.pool.ConnMaxIdleTime.String(),
	}).Info("postgres store opened")

	return store, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Pool возвращает применённые параметры пула.
func (s *Store) Pool() PoolConfig {
	return s.pool
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// Check — readiness-проверка: база отвечает и схема хотя бы раз мигрирована.
// Без применённых миграций каталог и корзины недоступны, поэтому это ошибка, а не degraded.
func (s *Store) Check(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	var applied int
	if err := s.db.QueryRowContext(queryCtx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	if applied == 0 {
		return errors.New("postgres schema has no applied migrations")
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) entry() *log.Entry {
	if s == nil || s.logger == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return s.logger
}
