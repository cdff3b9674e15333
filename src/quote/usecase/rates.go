package usecase

import (
	"context"
	"fmt"

	"github.com/MMN3003/payagent/src/quote/domain"
	"github.com/shopspring/decimal"
)

var _ domain.RateProvider = (*FixedRateProvider)(nil)

// FixedRateProvider answers a configured constant rate per currency. Stable
// coins are pegged 1:1 by default.
type FixedRateProvider struct {
	rates map[domain.Currency]decimal.Decimal
}

func NewFixedRateProvider() *FixedRateProvider {
	return &FixedRateProvider{rates: map[domain.Currency]decimal.Decimal{
		domain.CurrencyUSDC: decimal.NewFromInt(1),
	}}
}

func (p *FixedRateProvider) Rate(_ context.Context, currency domain.Currency) (domain.Rate, error) {
	r, ok := p.rates[currency]
	if !ok {
		return domain.Rate{}, fmt.Errorf("no rate for %s", currency)
	}
	return domain.Rate{Value: r, Source: domain.RateSourceManual}, nil
}
