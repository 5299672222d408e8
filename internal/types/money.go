// README: Common money value object used across modules.
package types

import "github.com/shopspring/decimal"

const CurrencyUSD = "USD"

// Money is an amount in minor units (cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// MoneyFromMajor converts a major-unit amount (dollars) to minor units, rounding half away from zero.
func MoneyFromMajor(amount float64, currency string) Money {
	return Money{Amount: MinorUnits(amount), Currency: currency}
}

func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// Major renders the amount with two decimals, e.g. "60.36".
func (m Money) Major() string {
	return decimal.New(m.Amount, -2).StringFixed(2)
}

// Round2 rounds a major-unit amount to cents for display.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
