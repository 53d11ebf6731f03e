package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cart-pricing-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	ErrDuplicateProductID = errors.New("catalog: duplicate product id")
	ErrInvalidRecord      = errors.New("catalog: invalid product record")
)

// Sort orders accepted by List. The empty value keeps seed order.
const (
	SortPriceAsc   = "price-asc"
	SortPriceDesc  = "price-desc"
	SortRatingAsc  = "rating-asc"
	SortRatingDesc = "rating-desc"
)

// ListParams filters and orders a catalog listing.
type ListParams struct {
	Query    string // matched against title and category, case-insensitive
	Category string // "" or "all" means every category
	Sort     string
}

// Catalog is the set of products a cart can hold. It is read-only after New
// and safe for concurrent readers.
type Catalog struct {
	products []*domain.Product
	byID     map[string]*domain.Product
}

// New validates records and builds the catalog in record order.
func New(records []domain.ProductRecord) (*Catalog, error) {
	validate := validator.New()
	c := &Catalog{
		products: make([]*domain.Product, 0, len(records)),
		byID:     make(map[string]*domain.Product, len(records)),
	}
	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: record %d (%q): %v", ErrInvalidRecord, i, rec.Title, err)
		}
		p := domain.NewProduct(rec)
		if _, exists := c.byID[p.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProductID, p.ID)
		}
		c.products = append(c.products, p)
		c.byID[p.ID] = p
	}
	return c, nil
}

// Lookup implements domain.ProductLookup.
func (c *Catalog) Lookup(id string) (*domain.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Products returns every product in seed order.
func (c *Catalog) Products() []*domain.Product {
	out := make([]*domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Categories lists distinct category labels in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		key := strings.ToLower(p.Category)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p.Category)
	}
	return out
}

// IsValidSort reports whether s is a sort order List understands.
func IsValidSort(s string) bool {
	switch s {
	case "", SortPriceAsc, SortPriceDesc, SortRatingAsc, SortRatingDesc:
		return true
	}
	return false
}

// List returns the products matching params. Unknown sort values keep seed order.
func (c *Catalog) List(params ListParams) []*domain.Product {
	query := strings.ToLower(strings.TrimSpace(params.Query))
	category := strings.ToLower(strings.TrimSpace(params.Category))

	out := make([]*domain.Product, 0, len(c.products))
	for _, p := range c.products {
		matchQ := query == "" ||
			strings.Contains(strings.ToLower(p.Title), query) ||
			strings.Contains(strings.ToLower(p.Category), query)
		matchC := category == "" || category == "all" || strings.ToLower(p.Category) == category
		if matchQ && matchC {
			out = append(out, p)
		}
	}

	switch params.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].FinalPrice().LessThan(out[j].FinalPrice()) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].FinalPrice().GreaterThan(out[j].FinalPrice()) })
	case SortRatingAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })
	case SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}
	return out
}
