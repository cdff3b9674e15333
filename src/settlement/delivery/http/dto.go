package http

import (
	"encoding/json"
	"time"

	quotehttp "github.com/MMN3003/payagent/src/quote/delivery/http"
	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/shopspring/decimal"
)

// SettleRequestBody carries the signed x402 payment payload. The payload may
// instead arrive base64 encoded in the X-PAYMENT header.
// swagger:model SettleRequestBody
type SettleRequestBody struct {
	SessionID    string          `json:"sessionId" example:"session_7c1e2f4a-0d9b-4b8e-9a51-3f6d2c8e1b07"`
	PaymentProof json.RawMessage `json:"paymentProof,omitempty" swaggertype:"object"`
}

// SettlementResultDto
// swagger:model SettlementResultDto
type SettlementResultDto struct {
	SessionID        string          `json:"sessionId"`
	Status           string          `json:"status" example:"settled"`
	TransactionRef   string          `json:"transactionRef" example:"0x5f2c..."`
	SettledAt        time.Time       `json:"settledAt"`
	Amount           decimal.Decimal `json:"amount" swaggertype:"string" example:"100"`
	Currency         string          `json:"currency" example:"USDC"`
	CommissionBps    int             `json:"commissionBps" example:"500"`
	CommissionAmount decimal.Decimal `json:"commissionAmount" swaggertype:"string" example:"5"`
	NetAmount        decimal.Decimal `json:"netAmount" swaggertype:"string" example:"95"`
	PaymentStatus    string          `json:"paymentStatus,omitempty" example:"settled"`
}

func SettlementResultDtoFromDomain(r domain.SettlementResult) SettlementResultDto {
	return SettlementResultDto{
		SessionID:        r.SessionID,
		Status:           string(r.Status),
		TransactionRef:   r.TransactionRef,
		SettledAt:        r.SettledAt,
		Amount:           r.Amount,
		Currency:         string(r.Currency),
		CommissionBps:    r.CommissionBps,
		CommissionAmount: r.CommissionAmount,
		NetAmount:        r.NetAmount,
		PaymentStatus:    string(r.PaymentStatus),
	}
}

// RetryResultDto
// swagger:model RetryResultDto
type RetryResultDto struct {
	SessionID          string `json:"sessionId"`
	PaymentStatus      string `json:"paymentStatus" example:"settled"`
	CommissionTxRef    string `json:"commissionTxRef,omitempty"`
	CommissionAttempts int    `json:"commissionAttempts" example:"2"`
}

func RetryResultDtoFromDomain(r domain.RetryResult) RetryResultDto {
	return RetryResultDto{
		SessionID:          r.SessionID,
		PaymentStatus:      string(r.PaymentStatus),
		CommissionTxRef:    r.CommissionTxRef,
		CommissionAttempts: r.CommissionAttempts,
	}
}

type SettlementDto struct {
	SettledAt          time.Time       `json:"settledAt"`
	TransactionRef     string          `json:"transactionRef"`
	TotalAmount        decimal.Decimal `json:"totalAmount" swaggertype:"string"`
	CommissionBps      int             `json:"commissionBps"`
	CommissionAmount   decimal.Decimal `json:"commissionAmount" swaggertype:"string"`
	NetAmount          decimal.Decimal `json:"netAmount" swaggertype:"string"`
	PaymentStatus      string          `json:"paymentStatus,omitempty"`
	CommissionTxRef    string          `json:"commissionTxRef,omitempty"`
	CommissionAttempts int             `json:"commissionAttempts"`
	EncryptedAmount    string          `json:"encryptedAmount,omitempty"`
}

type AuditEntryDto struct {
	Event  string    `json:"event" example:"settlement.settled"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// StatusViewDto
// swagger:model StatusViewDto
type StatusViewDto struct {
	SessionID      string             `json:"sessionId"`
	Status         string             `json:"status" example:"pending"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	ExpiresAt      time.Time          `json:"expiresAt"`
	TransactionRef string             `json:"transactionRef,omitempty"`
	FailureReason  string             `json:"failureReason,omitempty"`
	Quote          quotehttp.QuoteDto `json:"quote"`
	Settlement     *SettlementDto     `json:"settlement,omitempty"`
	AuditLog       []AuditEntryDto    `json:"auditLog"`
}

func StatusViewDtoFromDomain(v domain.StatusView) StatusViewDto {
	dto := StatusViewDto{
		SessionID:      v.SessionID,
		Status:         string(v.Status),
		UpdatedAt:      v.UpdatedAt,
		ExpiresAt:      v.ExpiresAt,
		TransactionRef: v.TransactionRef,
		FailureReason:  v.FailureReason,
		Quote:          quotehttp.QuoteDtoFromDomain(v.Quote),
		AuditLog:       auditDtos(v.AuditLog),
	}
	if s := v.Settlement; s != nil {
		dto.Settlement = &SettlementDto{
			SettledAt:          s.SettledAt,
			TransactionRef:     s.TransactionRef,
			TotalAmount:        s.TotalAmount,
			CommissionBps:      s.CommissionBps,
			CommissionAmount:   s.CommissionAmount,
			NetAmount:          s.NetAmount,
			PaymentStatus:      string(s.PaymentStatus),
			CommissionTxRef:    s.CommissionTxRef,
			CommissionAttempts: s.CommissionAttempts,
			EncryptedAmount:    s.EncryptedAmount,
		}
	}
	return dto
}

func auditDtos(entries []sessiondomain.AuditEntry) []AuditEntryDto {
	out := make([]AuditEntryDto, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryDto{Event: string(e.Event), Detail: e.Detail, At: e.At})
	}
	return out
}

// ListPaymentsQuery
type ListPaymentsQuery struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// PaymentDto is a merchant dashboard row
// swagger:model PaymentDto
type PaymentDto struct {
	ID                 string          `json:"id"`
	SessionID          string          `json:"sessionId"`
	TransactionRef     string          `json:"transactionRef"`
	Payer              string          `json:"payer,omitempty"`
	Amount             decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency           string          `json:"currency"`
	CommissionBps      int             `json:"commissionBps"`
	CommissionAmount   decimal.Decimal `json:"commissionAmount" swaggertype:"string"`
	NetAmount          decimal.Decimal `json:"netAmount" swaggertype:"string"`
	Status             string          `json:"status"`
	CommissionTxRef    string          `json:"commissionTxRef,omitempty"`
	CommissionAttempts int             `json:"commissionAttempts"`
	Confidential       bool            `json:"confidential"`
	SettledAt          time.Time       `json:"settledAt"`
}

// PaymentPageDto
// swagger:model PaymentPageDto
type PaymentPageDto struct {
	Items    []PaymentDto `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

func PaymentPageDtoFromDomain(p domain.PaymentPage) PaymentPageDto {
	items := make([]PaymentDto, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, PaymentDto{
			ID:                 it.ID,
			SessionID:          it.SessionID,
			TransactionRef:     it.TransactionRef,
			Payer:              it.Payer,
			Amount:             it.Amount,
			Currency:           string(it.Currency),
			CommissionBps:      it.CommissionBps,
			CommissionAmount:   it.CommissionAmount,
			NetAmount:          it.NetAmount,
			Status:             string(it.Status),
			CommissionTxRef:    it.CommissionTxRef,
			CommissionAttempts: it.CommissionAttempts,
			Confidential:       it.EncryptedAmount != "",
			SettledAt:          it.SettledAt,
		})
	}
	return PaymentPageDto{Items: items, Total: p.Total, Page: p.Page, PageSize: p.PageSize}
}

// RevealAmountDto
// swagger:model RevealAmountDto
type RevealAmountDto struct {
	SessionID string `json:"sessionId"`
	Amount    string `json:"amount" example:"100"`
}
