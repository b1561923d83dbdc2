package config_test

import (
	"testing"

	"sellthrough-backend/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToSettlementAmount(t *testing.T) {
	// 100 GBP at 1.17 settles at exactly 117.00
	got := config.ToSettlementAmount(decimal.NewFromInt(100), "GBP")
	assert.Equal(t, "117", got.String())

	got = config.ToSettlementAmount(decimal.RequireFromString("19.995"), "EUR")
	assert.Equal(t, "20", got.String())

	// Unknown currencies convert 1:1
	got = config.ToSettlementAmount(decimal.RequireFromString("42.424"), "XXX")
	assert.Equal(t, "42.42", got.String())
}

func TestSettlementMultiplier(t *testing.T) {
	rate, ok := config.SettlementMultiplier("EUR")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))

	_, ok = config.SettlementMultiplier("ZWL")
	assert.False(t, ok)
}
