package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedBackend is a read-through, write-through LRU in front of another Backend.
// It assumes it is the only writer to the keys it serves.
type CachedBackend struct {
	next  Backend
	cache *lru.Cache[string, []byte]
}

func NewCachedBackend(next Backend, size int) (*CachedBackend, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("store: failed to create cache: %w", err)
	}
	return &CachedBackend{next: next, cache: cache}, nil
}

func (c *CachedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *CachedBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := c.next.Put(ctx, key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, value)
	return nil
}

func (c *CachedBackend) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.next.Delete(ctx, key)
}

// Ping forwards to the wrapped backend when it supports it.
func (c *CachedBackend) Ping(ctx context.Context) error {
	if p, ok := c.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *CachedBackend) Close() error {
	c.cache.Purge()
	return c.next.Close()
}
