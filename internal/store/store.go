package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Store is the persistence adapter handed to components that need durability.
// It only knows about keys and JSON values, nothing about carts or themes.
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// New wraps backend. A nil logger is replaced by a no-op one.
func New(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Save serializes value as JSON and writes it under key.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: failed to encode value for key %q: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store: failed to save key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("store: failed to delete key %q: %w", key, err)
	}
	return nil
}

// Ping reports backend health. Backends without a connection always succeed.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Load reads key into a fresh T. It returns fallback when the key is absent,
// the stored bytes do not decode as T, or the backend read fails. Errors are
// logged, never returned.
func Load[T any](ctx context.Context, s *Store, key string, fallback T) T {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("storage read failed, using fallback", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		s.logger.Warn("stored value is malformed, using fallback", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return value
}
