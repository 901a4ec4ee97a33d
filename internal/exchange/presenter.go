package exchange

import (
	"context"

	"github.com/shopspring/decimal"
)

// Presentation is a unit amount rendered for people.
type Presentation struct {
	Units           int64
	Display         decimal.Decimal
	DisplayCurrency string
	// Local is set only when a local currency is configured and a rate was available.
	Local         *decimal.Decimal
	LocalCurrency string
}

// String renders the display amount, followed by the local amount when known.
func (p Presentation) String() string {
	s := FormatMoney(p.Display, p.DisplayCurrency)
	if p.Local != nil {
		s += " (≈ " + FormatMoney(*p.Local, p.LocalCurrency) + ")"
	}
	return s
}

// Presenter renders unit amounts in display and local currency.
type Presenter struct {
	fixed         FixedRate
	rates         RateSource
	localCurrency string
}

// NewPresenter creates a Presenter. rates may be nil, in which case only the
// display currency is shown.
func NewPresenter(fixed FixedRate, rates RateSource, localCurrency string) *Presenter {
	return &Presenter{
		fixed:         fixed,
		rates:         rates,
		localCurrency: normalizeCurrency(localCurrency),
	}
}

// Converter returns the underlying fixed-rate converter.
func (p *Presenter) Converter() FixedRate {
	return p.fixed
}

// Present converts units, looking up the local rate on a best-effort basis.
func (p *Presenter) Present(ctx context.Context, units int64) Presentation {
	out := Presentation{
		Units:           units,
		Display:         p.fixed.ToDisplay(units),
		DisplayCurrency: p.fixed.Currency(),
	}
	if p.rates == nil || p.localCurrency == "" || p.localCurrency == p.fixed.Currency() {
		return out
	}

	rate, err := p.rates.Rate(ctx, p.fixed.Currency(), p.localCurrency)
	if err != nil {
		return out
	}
	local := rate.Apply(out.Display)
	out.Local = &local
	out.LocalCurrency = p.localCurrency
	return out
}
