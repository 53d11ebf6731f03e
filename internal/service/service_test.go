package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cart-pricing-service/internal/catalog"
	"cart-pricing-service/internal/domain"
	"cart-pricing-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPutBackend struct {
	*store.MemoryBackend
}

func (f failingPutBackend) Put(context.Context, string, []byte) error {
	return errors.New("read-only")
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]domain.ProductRecord{
		{ID: "book-1", Kind: "book", Title: "Clean Code", Price: 589, Category: "books"},
		{ID: "elec-1", Kind: "electronic", Title: "Bluetooth Speaker", Price: 1499, Category: "electronics"},
		{ID: "tee-1", Kind: "clothing", Title: "Classic Tee", Price: 699, Category: "clothing"},
	})
	require.NoError(t, err)
	return c
}

func newTestCartService(t *testing.T) (*CartService, *store.Store, *store.MemoryBackend) {
	backend := store.NewMemoryBackend()
	st := store.New(backend, nil)
	return NewCartService(newTestCatalog(t), st, "t12", nil), st, backend
}

func TestCartService_EmptyCart(t *testing.T) {
	svc, _, _ := newTestCartService(t)

	snap, err := svc.Snapshot(context.Background(), "main")
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, "0", snap.GrandTotal.String())
	assert.Equal(t, 0, snap.ItemCount)
}

func TestCartService_AddPersists(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestCartService(t)

	snap, err := svc.AddItem(ctx, "main", "book-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "530", snap.Subtotal.String())
	assert.Equal(t, "95", snap.Tax.String())
	assert.Equal(t, "625", snap.GrandTotal.String())

	_, err = svc.AddItem(ctx, "main", "book-1", 1)
	require.NoError(t, err)

	records := store.Load(ctx, st, "t12:cart:main", []domain.CartRecord(nil))
	assert.Equal(t, []domain.CartRecord{{ProductID: "book-1", Quantity: 2}}, records)

	other, err := svc.Snapshot(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other.Lines, "carts are isolated by id")
}

func TestCartService_AddUnknownProduct(t *testing.T) {
	svc, _, _ := newTestCartService(t)

	_, err := svc.AddItem(context.Background(), "main", "nope", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_InvalidCartID(t *testing.T) {
	svc, _, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidCartID)
	_, err = svc.AddItem(ctx, "a:b", "book-1", 1)
	assert.ErrorIs(t, err, ErrInvalidCartID)
}

func TestCartService_LineOperations(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCartService(t)

	_, err := svc.AddItem(ctx, "main", "tee-1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "main", "elec-1", 2)
	require.NoError(t, err)

	snap, err := svc.IncrementItem(ctx, "main", "tee-1")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.ItemCount)

	snap, err = svc.DecrementItem(ctx, "main", "elec-1")
	require.NoError(t, err)
	snap, err = svc.DecrementItem(ctx, "main", "elec-1")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.ItemCount)

	snap, err = svc.SetQuantity(ctx, "main", "tee-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.ItemCount)

	snap, err = svc.RemoveItem(ctx, "main", "elec-1")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "tee-1", snap.Lines[0].ProductID)

	snap, err = svc.RemoveItem(ctx, "main", "elec-1")
	require.NoError(t, err)
	assert.Len(t, snap.Lines, 1)

	snap, err = svc.Clear(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, "0", snap.Subtotal.String())
}

func TestCartService_CorruptedStorageStartsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _, backend := newTestCartService(t)

	require.NoError(t, backend.Put(ctx, svc.CartKey("main"), []byte("{{{")))
	snap, err := svc.Snapshot(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, snap.Lines)

	snap, err = svc.AddItem(ctx, "main", "elec-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ItemCount)
}

func TestCartService_FractionalStoredQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _, backend := newTestCartService(t)

	require.NoError(t, backend.Put(ctx, svc.CartKey("main"), []byte(`[{"id":"book-1","qty":1.5},{"id":"elec-1","qty":2}]`)))

	snap, err := svc.Snapshot(ctx, "main")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2, "one odd record must not empty the cart")
	assert.Equal(t, 1, snap.Lines[0].Quantity)
	assert.Equal(t, 2, snap.Lines[1].Quantity)
}

func TestCartService_StaleRecordsArePruned(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestCartService(t)

	require.NoError(t, st.Save(ctx, svc.CartKey("main"), []domain.CartRecord{
		{ProductID: "retired", Quantity: 3},
		{ProductID: "book-1", Quantity: 2},
	}))

	snap, err := svc.Snapshot(ctx, "main")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.ItemCount)

	_, err = svc.IncrementItem(ctx, "main", "book-1")
	require.NoError(t, err)
	records := store.Load(ctx, st, svc.CartKey("main"), []domain.CartRecord(nil))
	assert.Equal(t, []domain.CartRecord{{ProductID: "book-1", Quantity: 3}}, records)
}

func TestCartService_SaveFailure(t *testing.T) {
	st := store.New(failingPutBackend{store.NewMemoryBackend()}, nil)
	svc := NewCartService(newTestCatalog(t), st, "t12", nil)

	_, err := svc.AddItem(context.Background(), "main", "book-1", 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
}

func TestPreferenceService(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	prefs := NewPreferenceService(store.New(backend, nil), "t12", domain.ThemeDark)

	assert.Equal(t, domain.ThemeDark, prefs.Theme(ctx))

	th, err := prefs.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, th)
	assert.Equal(t, domain.ThemeLight, prefs.Theme(ctx))

	th, err = prefs.SetTheme(ctx, "DARK")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, th)

	_, err = prefs.SetTheme(ctx, "neon")
	assert.ErrorIs(t, err, ErrInvalidTheme)

	require.NoError(t, backend.Put(ctx, "t12:theme", []byte(`"sepia"`)))
	assert.Equal(t, domain.ThemeDark, prefs.Theme(ctx))

	require.NoError(t, backend.Put(ctx, "t12:theme", []byte(`light`)))
	assert.Equal(t, domain.ThemeDark, prefs.Theme(ctx), "unparseable values fall back to the default")

	require.NoError(t, backend.Put(ctx, "t12:theme", []byte(`"light"`)))
	th, err = prefs.ResetTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, th)
	assert.Equal(t, domain.ThemeDark, prefs.Theme(ctx))

	assert.Equal(t, domain.ThemeLight, NewPreferenceService(store.New(backend, nil), "x", "bogus").Theme(ctx))
}

func TestPreferenceService_ConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	prefs := NewPreferenceService(store.New(store.NewMemoryBackend(), nil), "t12", domain.ThemeLight)

	const toggles = 50
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := prefs.ToggleTheme(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// an even number of serialized toggles lands back on the start value
	assert.Equal(t, domain.ThemeLight, prefs.Theme(ctx))
}
