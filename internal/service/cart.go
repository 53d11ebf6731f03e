package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"cart-pricing-service/internal/domain"
	"cart-pricing-service/internal/store"

	"go.uber.org/zap"
)

var (
	ErrProductNotFound = errors.New("service: product not found")
	ErrInvalidCartID   = errors.New("service: invalid cart id")
)

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CartService runs cart operations against persisted state. Each call restores
// the cart from the store, applies one mutation and writes it back.
type CartService struct {
	products  domain.ProductLookup
	store     *store.Store
	logger    *zap.Logger
	keyPrefix string

	// one logical operation at a time, so restore/mutate/persist never interleave
	mu sync.Mutex
}

// NewCartService creates a CartService. keyPrefix namespaces storage keys.
func NewCartService(products domain.ProductLookup, st *store.Store, keyPrefix string, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		products:  products,
		store:     st,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

// CartKey is the storage key holding the records of cartID.
func (s *CartService) CartKey(cartID string) string {
	return fmt.Sprintf("%s:cart:%s", s.keyPrefix, cartID)
}

func (s *CartService) restore(ctx context.Context, cartID string) *domain.Cart {
	records := store.Load(ctx, s.store, s.CartKey(cartID), []domain.CartRecord{})
	cart := domain.NewCart()
	cart.Restore(records, s.products)
	return cart
}

func (s *CartService) mutate(ctx context.Context, cartID string, op string, fn func(*domain.Cart) error) (domain.CartSnapshot, error) {
	if !cartIDPattern.MatchString(cartID) {
		return domain.CartSnapshot{}, ErrInvalidCartID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.restore(ctx, cartID)
	if err := fn(cart); err != nil {
		return domain.CartSnapshot{}, err
	}
	if err := s.store.Save(ctx, s.CartKey(cartID), cart.Serialize()); err != nil {
		s.logger.Error("failed to persist cart", zap.String("cart_id", cartID), zap.String("op", op), zap.Error(err))
		return domain.CartSnapshot{}, fmt.Errorf("service: %s: %w", op, err)
	}
	s.logger.Debug("cart updated", zap.String("cart_id", cartID), zap.String("op", op), zap.Int("item_count", cart.ItemCount()))
	return cart.Snapshot(), nil
}

// Snapshot returns the current view of cartID without changing it.
func (s *CartService) Snapshot(ctx context.Context, cartID string) (domain.CartSnapshot, error) {
	if !cartIDPattern.MatchString(cartID) {
		return domain.CartSnapshot{}, ErrInvalidCartID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restore(ctx, cartID).Snapshot(), nil
}

// AddItem adds quantity units of productID. The product must exist in the catalog.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string, quantity int) (domain.CartSnapshot, error) {
	return s.mutate(ctx, cartID, "add", func(c *domain.Cart) error {
		p, ok := s.products.Lookup(productID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		c.Add(p, quantity)
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) (domain.CartSnapshot, error) {
	return s.mutate(ctx, cartID, "remove", func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *CartService) SetQuantity(ctx context.Context, cartID, productID string, quantity int) (domain.CartSnapshot, error) {
	return s.mutate(ctx, cartID, "set_quantity", func(c *domain.Cart) error {
		c.SetQuantity(productID, quantity)
		return nil
	})
}

func (s *CartService) IncrementItem(ctx context.Context, cartID, productID string) (domain.CartSnapshot, error) {
	return s.mutate(ctx, cartID, "increment", func(c *domain.Cart) error {
		c.Increment(productID)
		return nil
	})
}

func (s *CartService) DecrementItem(ctx context.Context, cartID, productID string) (domain.CartSnapshot, error) {
	return s.mutate(ctx, cartID, "decrement", func(c *domain.Cart) error {
		c.Decrement(productID)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, cartID string) (domain.CartSnapshot, error) {
	return s.mutate(ctx, cartID, "clear", func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}
