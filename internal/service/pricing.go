// Package service contains the business logic layer.
//
// This file implements pay-per-image pricing. Orders that no subscription
// covers are quoted a flat per-image rate at creation time; the amount is
// frozen on the order and never recomputed.
package service

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PriceQuoter computes and formats pay-per-image prices.
type PriceQuoter struct {
	// UnitPriceCents is the charge per image in the minor currency unit.
	UnitPriceCents int64
	// Currency is the ISO 4217 code used for display (e.g. "USD").
	Currency currency.Unit
}

// NewPriceQuoter creates a PriceQuoter. An unrecognized currency code falls
// back to USD.
func NewPriceQuoter(unitPriceCents int64, currencyCode string) PriceQuoter {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}
	return PriceQuoter{
		UnitPriceCents: unitPriceCents,
		Currency:       unit,
	}
}

// Quote returns the total price in cents for a pay-per-image order.
func (q PriceQuoter) Quote(imageCount int32) int64 {
	return int64(imageCount) * q.UnitPriceCents
}

// Format renders an amount in cents for customer display, e.g. "$25.00".
// The amount stays in integer cents end to end; no float conversion.
func (q PriceQuoter) Format(cents int64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v%d.%02d", currency.Symbol(q.Currency), cents/100, cents%100)
}
