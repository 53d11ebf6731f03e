package store

import (
	"context"
	"errors"
)

// Predefined errors for store operations
var (
	ErrKeyNotFound       = errors.New("store: key not found")
	ErrEmptyKey          = errors.New("store: key must not be empty")
	ErrSchemaNotMigrated = errors.New("store: storage table does not exist, run migrations")
	ErrUnknownDriver     = errors.New("store: unknown storage driver")
)

// Backend is a durable key-value store of raw serialized values.
// Writes are last-write-wins per key; there are no transactions across keys.
type Backend interface {
	// Get returns ErrKeyNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
