// Package exchange converts coin units into display money and, optionally,
// display money into a family's local currency.
package exchange

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultUnitRate is the display value of one coin unit.
var DefaultUnitRate = decimal.RequireFromString("0.01")

// DefaultDisplayCurrency is used when no display currency is configured.
const DefaultDisplayCurrency = "USD"

// FixedRate converts between integer coin units and display money at a fixed rate.
// It only ever produces display values; balances are never derived from them
// except through FromDisplay, which floors to whole units.
type FixedRate struct {
	rate     decimal.Decimal
	currency string
}

// NewFixedRate creates a converter where one unit is worth rate in currency.
func NewFixedRate(rate decimal.Decimal, currency string) (FixedRate, error) {
	if !rate.IsPositive() {
		return FixedRate{}, errors.New("unit rate must be positive")
	}
	if currency == "" {
		currency = DefaultDisplayCurrency
	}
	return FixedRate{rate: rate, currency: normalizeCurrency(currency)}, nil
}

// DefaultFixedRate returns the 1 unit = 0.01 USD converter.
func DefaultFixedRate() FixedRate {
	return FixedRate{rate: DefaultUnitRate, currency: DefaultDisplayCurrency}
}

// Rate returns the display value of one unit.
func (f FixedRate) Rate() decimal.Decimal {
	return f.rate
}

// Currency returns the display currency code.
func (f FixedRate) Currency() string {
	return f.currency
}

// ToDisplay converts units to display money rounded to 2 decimals.
func (f FixedRate) ToDisplay(units int64) decimal.Decimal {
	return decimal.NewFromInt(units).Mul(f.rate).Round(2)
}

// FromDisplay converts display money to whole units, flooring any fraction.
func (f FixedRate) FromDisplay(amount decimal.Decimal) int64 {
	return amount.Div(f.rate).Floor().IntPart()
}

// Format renders units as display money, e.g. "$12.34 USD".
func (f FixedRate) Format(units int64) string {
	return FormatMoney(f.ToDisplay(units), f.currency)
}

// FormatMoney renders an amount with its currency symbol when one is known.
func FormatMoney(amount decimal.Decimal, currency string) string {
	symbol := currencySymbols[currency]
	if symbol == "" {
		return amount.StringFixed(2) + " " + currency
	}
	return symbol + amount.StringFixed(2) + " " + currency
}

var currencySymbols = map[string]string{
	"SGD": "S$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"MYR": "RM",
	"THB": "฿",
	"AUD": "A$",
	"NZD": "NZ$",
	"HKD": "HK$",
}
