package domain

import (
	"time"

	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentSettled           PaymentStatus = "settled"
	PaymentCommissionPending PaymentStatus = "commission_pending"
	PaymentCommissionFailed  PaymentStatus = "commission_failed"
	// PaymentCommissionTransferring marks a transfer handed to the chain whose
	// outcome is not yet recorded. It is never picked up for retry.
	PaymentCommissionTransferring PaymentStatus = "commission_transferring"
)

// Retryable reports whether the commission leg still has to run.
func (s PaymentStatus) Retryable() bool {
	return s == PaymentCommissionPending || s == PaymentCommissionFailed
}

// Payment is written once per settled session. The monetary fields never
// change; only the commission leg bookkeeping does.
type Payment struct {
	ID                  string
	SessionID           string
	TransactionRef      string
	Payer               string
	Amount              decimal.Decimal
	Currency            quotedomain.Currency
	CommissionBps       int
	CommissionAmount    decimal.Decimal
	NetAmount           decimal.Decimal
	Status              PaymentStatus
	CommissionTxRef     string
	CommissionAttempts  int
	LastCommissionError string
	EncryptedAmount     string
	CreatedAt           time.Time
	SettledAt           time.Time
	UpdatedAt           time.Time
}

// CommissionUpdate is the mutable part of a Payment.
type CommissionUpdate struct {
	Status    PaymentStatus
	TxRef     string
	Attempts  int
	LastError string
	UpdatedAt time.Time
}

type SettlementResult struct {
	SessionID        string
	Status           sessiondomain.Status
	TransactionRef   string
	SettledAt        time.Time
	Amount           decimal.Decimal
	Currency         quotedomain.Currency
	CommissionBps    int
	CommissionAmount decimal.Decimal
	NetAmount        decimal.Decimal
	PaymentStatus    PaymentStatus
}

type RetryResult struct {
	SessionID          string
	PaymentStatus      PaymentStatus
	CommissionTxRef    string
	CommissionAttempts int
}

type StatusView struct {
	SessionID      string
	Status         sessiondomain.Status
	UpdatedAt      time.Time
	ExpiresAt      time.Time
	TransactionRef string
	FailureReason  string
	Quote          quotedomain.Quote
	Settlement     *SettlementView
	AuditLog       []sessiondomain.AuditEntry
}

type SettlementView struct {
	SettledAt          time.Time
	TransactionRef     string
	TotalAmount        decimal.Decimal
	CommissionBps      int
	CommissionAmount   decimal.Decimal
	NetAmount          decimal.Decimal
	PaymentStatus      PaymentStatus
	CommissionTxRef    string
	CommissionAttempts int
	EncryptedAmount    string
}

// Requirements is what the facilitator must check the proof against.
type Requirements struct {
	PayTo     string
	Amount    decimal.Decimal
	Currency  quotedomain.Currency
	Nonce     string
	ExpiresAt time.Time
}

type FacilitatorReceipt struct {
	TransactionRef string
	Payer          string
	Network        string
}

// VerificationError is a definitive rejection of the proof by the facilitator.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string { return "payment rejected: " + e.Reason }

type ListFilter struct {
	Status   PaymentStatus
	Page     int
	PageSize int
}

type PaymentPage struct {
	Items    []Payment
	Total    int64
	Page     int
	PageSize int
}

type EventType string

const (
	EventPaymentSettled        EventType = "payment.settled"
	EventPaymentFailed         EventType = "payment.failed"
	EventCommissionTransferred EventType = "commission.transferred"
	EventCommissionFailed      EventType = "commission.failed"
)

type Event struct {
	Type             EventType       `json:"type"`
	SessionID        string          `json:"session_id"`
	TransactionRef   string          `json:"transaction_ref,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	Reason           string          `json:"reason,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
}
