package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cart-pricing-service/internal/catalog"
	"cart-pricing-service/internal/config"
	"cart-pricing-service/internal/domain"
	"cart-pricing-service/internal/store"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// openBackend connects the configured key-value backend and, when a cache
// size is set, wraps it in the LRU cache.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var backend store.Backend
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		backend = store.NewMemoryBackend()
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		pg := store.NewPostgresBackend(db, logger)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to PostgreSQL", zap.String("host", cfg.Postgres.Host), zap.String("db_name", cfg.Postgres.DBName))
		backend = pg
	case config.DriverSQLite:
		lite, err := store.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("opened SQLite database", zap.String("path", cfg.SQLite.Path))
		backend = lite
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rb := store.NewRedisBackend(client)
		if err := rb.Ping(ctx); err != nil {
			rb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
		backend = rb
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownDriver, cfg.Storage.Driver)
	}

	if cfg.Storage.CacheSize > 0 {
		cached, err := store.NewCachedBackend(backend, cfg.Storage.CacheSize)
		if err != nil {
			backend.Close()
			return nil, err
		}
		logger.Info("storage cache enabled", zap.Int("size", cfg.Storage.CacheSize))
		return cached, nil
	}
	return backend, nil
}

// loadCatalog builds the catalog from the seed file, or the built-in sample
// products when no file is configured.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	records := catalog.DefaultSeed()
	if cfg.Catalog.SeedFile != "" {
		var err error
		records, err = catalog.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, err
		}
	}
	return catalog.New(records)
}

func defaultTheme(cfg *config.Config) domain.Theme {
	if t, ok := domain.ParseTheme(cfg.DefaultTheme); ok {
		return t
	}
	return domain.ThemeLight
}
