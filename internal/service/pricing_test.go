package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceQuoter_Quote(t *testing.T) {
	q := NewPriceQuoter(500, "USD")

	assert.Equal(t, int64(500), q.Quote(1))
	assert.Equal(t, int64(1500), q.Quote(3))
	assert.Equal(t, int64(30000), q.Quote(60))
}

func TestPriceQuoter_Format(t *testing.T) {
	q := NewPriceQuoter(500, "USD")

	assert.Contains(t, q.Format(1500), "15.00")
}

func TestPriceQuoter_Format_ExactCents(t *testing.T) {
	q := NewPriceQuoter(500, "USD")

	// Sub-dollar remainders keep their leading zero and large amounts stay
	// exact; amounts never pass through floating point.
	assert.Contains(t, q.Format(105), "1.05")
	assert.Contains(t, q.Format(4107), "41.07")
	assert.Contains(t, q.Format(9), "0.09")
	assert.Contains(t, q.Format(1234567890123), "12,345,678,901.23")
}

func TestNewPriceQuoter_UnknownCurrencyFallsBackToUSD(t *testing.T) {
	q := NewPriceQuoter(500, "not-a-currency")

	assert.Equal(t, "USD", q.Currency.String())
}
