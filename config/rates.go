package config

import "github.com/shopspring/decimal"

// SettlementCurrency is the common currency every vendor amount is
// converted into for unified reporting.
const SettlementCurrency = "EUR"

// settlementMultipliers maps a source currency to its static conversion
// multiplier into the settlement currency. Rates are fixed configuration,
// not fetched at runtime.
var settlementMultipliers = map[string]decimal.Decimal{
	"EUR": decimal.NewFromFloat(1.0),
	"USD": decimal.NewFromFloat(0.92),
	"GBP": decimal.NewFromFloat(1.17),
	"SEK": decimal.NewFromFloat(0.088),
	"AED": decimal.NewFromFloat(0.25),
	"CHF": decimal.NewFromFloat(1.06),
}

// SettlementMultiplier returns the static multiplier for a source
// currency, and whether the currency is known at all.
func SettlementMultiplier(currencyCode string) (decimal.Decimal, bool) {
	rate, ok := settlementMultipliers[currencyCode]
	return rate, ok
}

// ToSettlementAmount converts a local-currency amount into the settlement
// currency, rounded to 2 decimal places. Unknown currencies convert 1:1.
func ToSettlementAmount(localAmount decimal.Decimal, currencyCode string) decimal.Decimal {
	rate, ok := settlementMultipliers[currencyCode]
	if !ok {
		return localAmount.Round(2)
	}
	return localAmount.Mul(rate).Round(2)
}
