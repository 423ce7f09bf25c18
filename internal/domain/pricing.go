package domain

import "github.com/shopspring/decimal"

// DefaultTaxRate applies when no rate is configured.
var DefaultTaxRate = decimal.NewFromFloat(0.08)

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	// TotalBeforeGiftCard is subtotal + tax, the cap for a gift card.
	TotalBeforeGiftCard decimal.Decimal `json:"totalBeforeGiftCard"`
	GiftCardApplied     decimal.Decimal `json:"giftCardApplied"`
	Total               decimal.Decimal `json:"total"`
}

// ComputeTotals rounds tax to cents and never lets the total go below zero.
func ComputeTotals(subtotal, taxRate, applied decimal.Decimal) Totals {
	tax := subtotal.Mul(taxRate).Round(2)
	before := subtotal.Add(tax)
	if applied.GreaterThan(before) {
		applied = before
	}
	total := before.Sub(applied)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal:            subtotal,
		Tax:                 tax,
		TotalBeforeGiftCard: before,
		GiftCardApplied:     applied,
		Total:               total,
	}
}
