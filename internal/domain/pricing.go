package domain

import "github.com/shopspring/decimal"

// TaxRate is the flat rate applied to a cart subtotal.
var TaxRate = decimal.RequireFromString("0.18")

type pricingRule struct {
	multiplier    decimal.Decimal
	showsOldPrice bool
}

// pricingRules holds one rule per Kind. A zero multiplier leaves the base price untouched.
var pricingRules = map[Kind]pricingRule{
	KindStandard:   {},
	KindBook:       {multiplier: decimal.RequireFromString("0.90"), showsOldPrice: true},
	KindElectronic: {multiplier: decimal.RequireFromString("1.03")},
	KindClothing:   {multiplier: decimal.RequireFromString("0.85"), showsOldPrice: true},
}

// AdjustedPrice applies the rule for kind to base. Adjusted prices are rounded
// half-up to a whole currency unit.
func AdjustedPrice(kind Kind, base decimal.Decimal) decimal.Decimal {
	rule, ok := pricingRules[kind]
	if !ok || rule.multiplier.IsZero() {
		return base
	}
	return RoundUnit(base.Mul(rule.multiplier))
}

// RoundUnit rounds an amount to the nearest whole currency unit, halves away from zero.
// Amounts in this package are never negative, so that is round-half-up.
func RoundUnit(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

// TaxOn computes the tax owed on subtotal.
func TaxOn(subtotal decimal.Decimal) decimal.Decimal {
	return RoundUnit(subtotal.Mul(TaxRate))
}
