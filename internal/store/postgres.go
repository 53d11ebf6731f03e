package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// pqUndefinedTable is the SQLSTATE Postgres reports for a missing relation.
const pqUndefinedTable = "42P01"

// PostgresBackend implements Backend on a PostgreSQL table.
type PostgresBackend struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresBackend creates a new PostgresBackend over an open pool.
func NewPostgresBackend(db *sql.DB, logger *zap.Logger) *PostgresBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresBackend{db: db, logger: logger}
}

// Migrate creates the storage schema and table if they are missing.
func (s *PostgresBackend) Migrate(ctx context.Context) error {
	query := `
		CREATE SCHEMA IF NOT EXISTS storage;
		CREATE TABLE IF NOT EXISTS storage.kv_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("store: Migrate failed: %w", err)
	}
	return nil
}

// mapPgError turns driver errors we know about into package errors.
func mapPgError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable {
		return fmt.Errorf("store: %s: %w", op, ErrSchemaNotMigrated)
	}
	return fmt.Errorf("store: %s failed: %w", op, err)
}

func (s *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM storage.kv_entries WHERE key = $1;`
	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, mapPgError("Get", err)
	}
	return []byte(value), nil
}

func (s *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO storage.kv_entries (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP;
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return mapPgError("Put", err)
	}
	return nil
}

func (s *PostgresBackend) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM storage.kv_entries WHERE key = $1;`
	result, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return mapPgError("Delete", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: Delete failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Ping is used by the health check.
func (s *PostgresBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresBackend) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("closing database connection pool")
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database connection pool", zap.Error(err))
		return err
	}
	return nil
}
