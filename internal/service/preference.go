package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cart-pricing-service/internal/domain"
	"cart-pricing-service/internal/store"
)

var ErrInvalidTheme = errors.New("service: theme must be light or dark")

// PreferenceService persists the theme flag through the same store as carts.
type PreferenceService struct {
	store        *store.Store
	key          string
	defaultTheme domain.Theme

	// guards read-modify-write sequences such as ToggleTheme
	mu sync.Mutex
}

func NewPreferenceService(st *store.Store, keyPrefix string, defaultTheme domain.Theme) *PreferenceService {
	if _, ok := domain.ParseTheme(string(defaultTheme)); !ok {
		defaultTheme = domain.ThemeLight
	}
	return &PreferenceService{store: st, key: keyPrefix + ":theme", defaultTheme: defaultTheme}
}

// Theme returns the stored theme, or the default when none (or garbage) is stored.
func (s *PreferenceService) Theme(ctx context.Context) domain.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme(ctx)
}

func (s *PreferenceService) theme(ctx context.Context) domain.Theme {
	raw := store.Load(ctx, s.store, s.key, string(s.defaultTheme))
	if t, ok := domain.ParseTheme(raw); ok {
		return t
	}
	return s.defaultTheme
}

func (s *PreferenceService) SetTheme(ctx context.Context, raw string) (domain.Theme, error) {
	t, ok := domain.ParseTheme(raw)
	if !ok {
		return "", ErrInvalidTheme
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, t)
}

func (s *PreferenceService) save(ctx context.Context, t domain.Theme) (domain.Theme, error) {
	if err := s.store.Save(ctx, s.key, string(t)); err != nil {
		return "", fmt.Errorf("service: save theme: %w", err)
	}
	return t, nil
}

func (s *PreferenceService) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, s.theme(ctx).Toggle())
}

// ResetTheme forgets the stored preference and reports the default.
func (s *PreferenceService) ResetTheme(ctx context.Context) (domain.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Remove(ctx, s.key); err != nil {
		return "", fmt.Errorf("service: reset theme: %w", err)
	}
	return s.defaultTheme, nil
}
