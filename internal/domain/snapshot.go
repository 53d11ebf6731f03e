package domain

import "github.com/shopspring/decimal"

// LineView is the read-only rendering of one cart line.
type LineView struct {
	ProductID string           `json:"product_id"`
	Title     string           `json:"title"`
	Kind      Kind             `json:"kind"`
	Category  string           `json:"category"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	OldPrice  *decimal.Decimal `json:"old_price,omitempty"`
	Quantity  int              `json:"quantity"`
	LineTotal decimal.Decimal  `json:"line_total"`
}

// CartSnapshot is what a rendering layer reads after each mutation.
type CartSnapshot struct {
	Lines      []LineView      `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	ItemCount  int             `json:"item_count"`
}

func (c *Cart) Snapshot() CartSnapshot {
	lines := make([]LineView, 0, len(c.lines))
	for _, l := range c.lines {
		view := LineView{
			ProductID: l.Product.ID,
			Title:     l.Product.Title,
			Kind:      l.Product.Kind,
			Category:  l.Product.Category,
			UnitPrice: l.Product.FinalPrice(),
			Quantity:  l.Quantity,
			LineTotal: l.Total(),
		}
		if old, ok := l.Product.OldPrice(); ok {
			view.OldPrice = &old
		}
		lines = append(lines, view)
	}
	subtotal := c.Subtotal()
	tax := TaxOn(subtotal)
	return CartSnapshot{
		Lines:      lines,
		Subtotal:   subtotal,
		Tax:        tax,
		GrandTotal: subtotal.Add(tax),
		ItemCount:  c.ItemCount(),
	}
}
