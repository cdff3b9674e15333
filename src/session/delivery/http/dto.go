package http

import (
	"time"

	quotehttp "github.com/MMN3003/payagent/src/quote/delivery/http"
	"github.com/MMN3003/payagent/src/session/domain"
	"github.com/shopspring/decimal"
)

// OpenSessionRequestBody binds a quote to a new payment session
// swagger:model OpenSessionRequestBody
type OpenSessionRequestBody struct {
	QuoteID      string          `json:"quoteId" example:"quote_3b4f0c1e-9a2d-4e55-b1c8-6a7f2d9e0b11"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"string" example:"100"`
	Currency     string          `json:"currency" example:"USDC"`
	Memo         string          `json:"memo,omitempty" example:"order #42"`
	Confidential bool            `json:"confidential,omitempty"`
}

// SessionViewDto is the redacted session handed to the paying client
// swagger:model SessionViewDto
type SessionViewDto struct {
	SessionID       string             `json:"sessionId"`
	FacilitatorURL  string             `json:"facilitatorUrl" example:"https://facilitator.payai.network"`
	MerchantAddress string             `json:"merchantAddress" example:"0x209693Bc6afc0C5328bA36FaF03C514EF312287C"`
	Nonce           string             `json:"nonce"`
	ExpiresAt       time.Time          `json:"expiresAt"`
	Quote           quotehttp.QuoteDto `json:"quote"`
}

func SessionViewDtoFromDomain(v domain.View) SessionViewDto {
	return SessionViewDto{
		SessionID:       v.SessionID,
		FacilitatorURL:  v.FacilitatorURL,
		MerchantAddress: v.MerchantAddress,
		Nonce:           v.Nonce,
		ExpiresAt:       v.ExpiresAt,
		Quote:           quotehttp.QuoteDtoFromDomain(v.Quote),
	}
}
