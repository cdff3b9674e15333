package http

import (
	"time"

	"github.com/MMN3003/payagent/src/quote/domain"
	"github.com/shopspring/decimal"
)

// CreateQuoteRequestBody asks for a price lock
// swagger:model CreateQuoteRequestBody
type CreateQuoteRequestBody struct {
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	Currency string          `json:"currency" example:"USDC" binding:"required"`
}

// QuoteDto is the public shape of a quote
// swagger:model QuoteDto
type QuoteDto struct {
	ID              string          `json:"id" example:"quote_3b4f0c1e-9a2d-4e55-b1c8-6a7f2d9e0b11"`
	Currency        string          `json:"currency" example:"USDC"`
	InputAmount     decimal.Decimal `json:"inputAmount" swaggertype:"string" example:"100"`
	QuotedAmountUSD decimal.Decimal `json:"quotedAmountUsd" swaggertype:"string" example:"100"`
	Rate            decimal.Decimal `json:"rate" swaggertype:"string" example:"1"`
	RateSource      string          `json:"rateSource" example:"manual"`
	FetchedAt       time.Time       `json:"fetchedAt"`
	QuoteExpiresAt  time.Time       `json:"quoteExpiresAt"`
}

func QuoteDtoFromDomain(q domain.Quote) QuoteDto {
	return QuoteDto{
		ID:              q.ID,
		Currency:        string(q.Currency),
		InputAmount:     q.InputAmount,
		QuotedAmountUSD: q.QuotedAmountUSD,
		Rate:            q.Rate,
		RateSource:      string(q.RateSource),
		FetchedAt:       q.FetchedAt,
		QuoteExpiresAt:  q.QuoteExpiresAt,
	}
}
