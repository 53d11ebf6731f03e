package domain_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"cart-pricing-service/internal/domain"

	"github.com/cucumber/godog"
)

type lookupMap map[string]*domain.Product

func (m lookupMap) Lookup(id string) (*domain.Product, bool) {
	p, ok := m[id]
	return p, ok
}

type cartFeatureContext struct {
	catalog lookupMap
	cart    *domain.Cart
	records []domain.CartRecord
}

func (c *cartFeatureContext) reset() {
	c.catalog = lookupMap{}
	c.cart = domain.NewCart()
	c.records = nil
}

func tableHeader(table *godog.Table) map[string]int {
	idx := map[string]int{}
	for i, cell := range table.Rows[0].Cells {
		idx[cell.Value] = i
	}
	return idx
}

func (c *cartFeatureContext) aCatalogWithProducts(table *godog.Table) error {
	col := tableHeader(table)
	for _, row := range table.Rows[1:] {
		price, err := strconv.ParseFloat(row.Cells[col["price"]].Value, 64)
		if err != nil {
			return err
		}
		p := domain.NewProduct(domain.ProductRecord{
			ID:    row.Cells[col["id"]].Value,
			Kind:  row.Cells[col["type"]].Value,
			Title: row.Cells[col["title"]].Value,
			Price: price,
		})
		c.catalog[p.ID] = p
	}
	return nil
}

func (c *cartFeatureContext) theStoredCartRecords(table *godog.Table) error {
	col := tableHeader(table)
	for _, row := range table.Rows[1:] {
		qty, err := strconv.Atoi(row.Cells[col["qty"]].Value)
		if err != nil {
			return err
		}
		c.records = append(c.records, domain.CartRecord{ProductID: row.Cells[col["id"]].Value, Quantity: qty})
	}
	return nil
}

func (c *cartFeatureContext) product(id string) (*domain.Product, error) {
	p, ok := c.catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("product %q is not in the catalog", id)
	}
	return p, nil
}

func (c *cartFeatureContext) iAddOf(qty int, id string) error {
	p, err := c.product(id)
	if err != nil {
		return err
	}
	c.cart.Add(p, qty)
	return nil
}

func (c *cartFeatureContext) iDecrement(id string) error {
	c.cart.Decrement(id)
	return nil
}

func (c *cartFeatureContext) iRestoreTheCart() error {
	c.cart.Restore(c.records, c.catalog)
	return nil
}

func expectAmount(name, got string, want int) error {
	if got != strconv.Itoa(want) {
		return fmt.Errorf("expected %s %d, got %s", name, want, got)
	}
	return nil
}

func (c *cartFeatureContext) theFinalPriceOfIs(id string, want int) error {
	p, err := c.product(id)
	if err != nil {
		return err
	}
	return expectAmount("final price", p.FinalPrice().String(), want)
}

func (c *cartFeatureContext) theSubtotalIs(want int) error {
	return expectAmount("subtotal", c.cart.Subtotal().String(), want)
}

func (c *cartFeatureContext) theTaxIs(want int) error {
	return expectAmount("tax", c.cart.Tax().String(), want)
}

func (c *cartFeatureContext) theGrandTotalIs(want int) error {
	return expectAmount("grand total", c.cart.GrandTotal().String(), want)
}

func (c *cartFeatureContext) theItemCountIs(want int) error {
	if got := c.cart.ItemCount(); got != want {
		return fmt.Errorf("expected item count %d, got %d", want, got)
	}
	return nil
}

func (c *cartFeatureContext) theCartHasLines(want int) error {
	if got := len(c.cart.Lines()); got != want {
		return fmt.Errorf("expected %d lines, got %d", want, got)
	}
	return nil
}

func (c *cartFeatureContext) theQuantityOfIs(id string, want int) error {
	for _, l := range c.cart.Lines() {
		if l.Product.ID == id {
			if l.Quantity != want {
				return fmt.Errorf("expected quantity %d for %s, got %d", want, id, l.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("no line for %s", id)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartFeatureContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a catalog with products:$`, tc.aCatalogWithProducts)
	ctx.Step(`^the stored cart records:$`, tc.theStoredCartRecords)

	ctx.Step(`^I add (\d+) of "([^"]*)"$`, tc.iAddOf)
	ctx.Step(`^I decrement "([^"]*)"$`, tc.iDecrement)
	ctx.Step(`^I restore the cart$`, tc.iRestoreTheCart)

	ctx.Step(`^the final price of "([^"]*)" is (\d+)$`, tc.theFinalPriceOfIs)
	ctx.Step(`^the subtotal is (\d+)$`, tc.theSubtotalIs)
	ctx.Step(`^the tax is (\d+)$`, tc.theTaxIs)
	ctx.Step(`^the grand total is (\d+)$`, tc.theGrandTotalIs)
	ctx.Step(`^the item count is (\d+)$`, tc.theItemCountIs)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the quantity of "([^"]*)" is (\d+)$`, tc.theQuantityOfIs)
}

func TestCartFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
