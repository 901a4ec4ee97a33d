package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rate is a quoted conversion rate between two currencies.
type Rate struct {
	From  string
	To    string
	Value decimal.Decimal
	Date  time.Time
}

// Apply converts amount at this rate, rounded to 2 decimals.
func (r Rate) Apply(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.Value).Round(2)
}

// RateSource looks up conversion rates.
type RateSource interface {
	Rate(ctx context.Context, fromCurrency, toCurrency string) (Rate, error)
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateRate(value decimal.Decimal) error {
	if !value.IsPositive() {
		return errors.New("conversion rate must be positive")
	}
	return nil
}
