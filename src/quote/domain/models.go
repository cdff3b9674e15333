package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSDC Currency = "USDC"
)

type RateSource string

const (
	RateSourceManual RateSource = "manual"
)

// Asset describes a settleable token
type Asset struct {
	Symbol   Currency `json:"symbol"`
	Decimals int32    `json:"decimals"`
}

var supportedAssets = map[Currency]Asset{
	CurrencyUSDC: {Symbol: CurrencyUSDC, Decimals: 6},
}

// LookupAsset resolves a client supplied currency code, case-insensitively.
func LookupAsset(code string) (Asset, bool) {
	a, ok := supportedAssets[Currency(strings.ToUpper(strings.TrimSpace(code)))]
	return a, ok
}

// Representable reports whether amount fits the asset's minor unit exactly.
func (a Asset) Representable(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(a.Decimals))
}

// ToMinor converts amount to integer minor units. Only call with a
// representable amount; extra precision is truncated.
func (a Asset) ToMinor(amount decimal.Decimal) *big.Int {
	return amount.Shift(a.Decimals).Truncate(0).BigInt()
}

func (a Asset) FromMinor(minor *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(minor, -a.Decimals)
}

// Quote entity. Immutable once created; ClaimedBy moves from empty to a
// session id and back only if that session was never stored.
type Quote struct {
	ID              string          `json:"id"`
	Currency        Currency        `json:"currency"`
	InputAmount     decimal.Decimal `json:"inputAmount"`
	QuotedAmountUSD decimal.Decimal `json:"quotedAmountUsd"`
	Rate            decimal.Decimal `json:"rate"`
	RateSource      RateSource      `json:"rateSource"`
	FetchedAt       time.Time       `json:"fetchedAt"`
	QuoteExpiresAt  time.Time       `json:"quoteExpiresAt"`
	ClaimedBy       string          `json:"-"`
}

func (q *Quote) ExpiredAt(now time.Time) bool {
	return !now.Before(q.QuoteExpiresAt)
}

func (q *Quote) Claimed() bool {
	return q.ClaimedBy != ""
}

// Rate is what a RateProvider answers with
type Rate struct {
	Value  decimal.Decimal
	Source RateSource
}
