package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of product variants. Each kind carries one fixed pricing rule.
type Kind int

const (
	KindStandard Kind = iota
	KindBook
	KindElectronic
	KindClothing
)

// DefaultCategory is used when a seed record carries no category label.
const DefaultCategory = "general"

// productIDNamespace seeds the name-based UUIDs derived for records without an id.
var productIDNamespace = uuid.MustParse("6f1c2a0e-4b1d-5c7e-9a3f-2d8e1b4c6a90")

func (k Kind) String() string {
	switch k {
	case KindBook:
		return "Book"
	case KindElectronic:
		return "Electronic"
	case KindClothing:
		return "Clothing"
	default:
		return "Standard"
	}
}

// MarshalText lets Kind render as its name in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// ParseKind maps a raw kind label onto a Kind. Matching is case-insensitive;
// unknown or empty labels fall back to KindStandard.
func ParseKind(raw string) Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "book":
		return KindBook
	case "electronic":
		return KindElectronic
	case "clothing":
		return KindClothing
	default:
		return KindStandard
	}
}

// ProductRecord is the raw shape a catalog is seeded from.
type ProductRecord struct {
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Kind     string  `json:"type" yaml:"type"`
	Title    string  `json:"title" yaml:"title" validate:"required,max=255"`
	Price    float64 `json:"price" yaml:"price" validate:"gte=0"`
	Rating   float64 `json:"rating" yaml:"rating" validate:"gte=0,lte=5"`
	Category string  `json:"category,omitempty" yaml:"category,omitempty" validate:"max=100"`
}

// Product represents an item of the catalog. It is immutable once built.
type Product struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	BasePrice decimal.Decimal `json:"base_price"`
	Category  string          `json:"category"`
	Rating    float64         `json:"rating"`
	Kind      Kind            `json:"kind"`
}

// NewProduct builds a Product from a raw record. Records without an id get a
// name-based UUID over kind and title, so the same seed yields the same id on every boot.
func NewProduct(rec ProductRecord) *Product {
	kind := ParseKind(rec.Kind)
	category := strings.TrimSpace(rec.Category)
	if category == "" {
		category = DefaultCategory
	}
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = uuid.NewSHA1(productIDNamespace, []byte(strings.ToLower(kind.String())+"|"+rec.Title)).String()
	}
	return &Product{
		ID:        id,
		Title:     rec.Title,
		BasePrice: decimal.NewFromFloat(rec.Price),
		Category:  category,
		Rating:    rec.Rating,
		Kind:      kind,
	}
}

// FinalPrice is the unit price after the kind-specific adjustment.
func (p *Product) FinalPrice() decimal.Decimal {
	return AdjustedPrice(p.Kind, p.BasePrice)
}

// OldPrice returns the pre-discount price for kinds that advertise one.
func (p *Product) OldPrice() (decimal.Decimal, bool) {
	if !pricingRules[p.Kind].showsOldPrice {
		return decimal.Zero, false
	}
	return p.BasePrice, true
}
