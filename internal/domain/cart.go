package domain

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// ProductLookup resolves a product id against a populated catalog.
type ProductLookup interface {
	Lookup(id string) (*Product, bool)
}

// CartRecord is the persisted form of a cart line: product id and quantity only.
type CartRecord struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"qty"`
}

// UnmarshalJSON accepts any JSON number for qty so one odd record does not
// invalidate the whole stored cart.
func (r *CartRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID string  `json:"id"`
		Quantity  float64 `json:"qty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ProductID = raw.ProductID
	r.Quantity = CoerceQuantity(raw.Quantity)
	return nil
}

// CartLine pairs a shared product reference with a quantity of at least 1.
type CartLine struct {
	Product  *Product
	Quantity int
}

// Total is the adjusted unit price times the quantity.
func (l *CartLine) Total() decimal.Decimal {
	return l.Product.FinalPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines, most recently added first.
// All totals are computed from the current lines on every call.
// A Cart is not safe for concurrent use.
type Cart struct {
	lines []*CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

// MaxQuantity caps a single line so quantities fit the persisted form on every platform.
const MaxQuantity = math.MaxInt32

// CoerceQuantity normalizes a quantity coming from an untyped source.
// Non-positive, non-integer and NaN values become 1; values above MaxQuantity
// (including +Inf) are clamped to it.
func CoerceQuantity(v float64) int {
	if v > MaxQuantity {
		return MaxQuantity
	}
	if math.IsNaN(v) || v < 1 || v != math.Trunc(v) {
		return 1
	}
	return int(v)
}

func (c *Cart) index(productID string) int {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add puts quantity units of p in the cart. An existing line is incremented,
// otherwise a new line goes to the front. Quantities below 1 count as 1.
func (c *Cart) Add(p *Product, quantity int) {
	if p == nil {
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity += quantity
		return
	}
	c.lines = append([]*CartLine{{Product: p, Quantity: quantity}}, c.lines...)
}

// Remove deletes the line for productID, if any.
func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SetQuantity overwrites the quantity of an existing line, clamped to at least 1.
func (c *Cart) SetQuantity(productID string, quantity int) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	c.lines[i].Quantity = quantity
}

func (c *Cart) Increment(productID string) {
	if i := c.index(productID); i >= 0 {
		c.lines[i].Quantity++
	}
}

// Decrement lowers a line by one unit but never below 1; use Remove to drop a line.
func (c *Cart) Decrement(productID string) {
	if i := c.index(productID); i >= 0 && c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

func (c *Cart) Tax() decimal.Decimal {
	return TaxOn(c.Subtotal())
}

func (c *Cart) GrandTotal() decimal.Decimal {
	return c.Subtotal().Add(c.Tax())
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Serialize returns the minimal persisted form, in line order.
func (c *Cart) Serialize() []CartRecord {
	out := make([]CartRecord, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, CartRecord{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	return out
}

// Restore replaces the cart contents with records resolved against lookup.
// Records whose product is unknown are skipped; duplicate ids are merged into one line.
func (c *Cart) Restore(records []CartRecord, lookup ProductLookup) {
	c.lines = nil
	if lookup == nil {
		return
	}
	for _, rec := range records {
		p, ok := lookup.Lookup(rec.ProductID)
		if !ok {
			continue
		}
		qty := rec.Quantity
		if qty < 1 {
			qty = 1
		}
		if i := c.index(p.ID); i >= 0 {
			c.lines[i].Quantity += qty
			continue
		}
		c.lines = append(c.lines, &CartLine{Product: p, Quantity: qty})
	}
}
