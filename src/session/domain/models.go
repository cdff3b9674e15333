package domain

import (
	"time"

	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	// StatusSettling marks a facilitator call in flight. Never shown to clients.
	StatusSettling Status = "settling"
	StatusSettled  Status = "settled"
	StatusFailed   Status = "failed"
	StatusExpired  Status = "expired"
)

// Public folds internal states into the ones clients know about.
func (s Status) Public() Status {
	if s == StatusSettling {
		return StatusPending
	}
	return s
}

func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusFailed || s == StatusExpired
}

const MaxMemoLength = 120

type Session struct {
	ID              string
	Quote           quotedomain.Quote
	FacilitatorURL  string
	MerchantAddress string
	Nonce           string
	Amount          decimal.Decimal
	Currency        quotedomain.Currency
	Memo            string
	Confidential    bool
	Status          Status
	TransactionRef  string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
	SettledAt       *time.Time
}

func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// View is the redacted projection handed to remote callers.
type View struct {
	SessionID       string            `json:"sessionId"`
	FacilitatorURL  string            `json:"facilitatorUrl"`
	MerchantAddress string            `json:"merchantAddress"`
	Nonce           string            `json:"nonce"`
	ExpiresAt       time.Time         `json:"expiresAt"`
	Quote           quotedomain.Quote `json:"quote"`
}

func (s *Session) View() View {
	return View{
		SessionID:       s.ID,
		FacilitatorURL:  s.FacilitatorURL,
		MerchantAddress: s.MerchantAddress,
		Nonce:           s.Nonce,
		ExpiresAt:       s.ExpiresAt,
		Quote:           s.Quote,
	}
}

// Transition is a compare-and-set on Status. Optional fields are written
// only when the CAS wins.
type Transition struct {
	From           Status
	To             Status
	At             time.Time
	TransactionRef string
	FailureReason  string
	SettledAt      *time.Time
}

type AuditEvent string

const (
	AuditSessionOpened          AuditEvent = "session.opened"
	AuditSessionExpired         AuditEvent = "session.expired"
	AuditSettlementStarted      AuditEvent = "settlement.started"
	AuditSettlementSettled      AuditEvent = "settlement.settled"
	AuditSettlementFailed       AuditEvent = "settlement.failed"
	AuditSettlementTimeout      AuditEvent = "settlement.timeout"
	AuditSettlementUnrecorded   AuditEvent = "settlement.unrecorded"
	AuditCommissionTransferred  AuditEvent = "commission.transferred"
	AuditCommissionFailed       AuditEvent = "commission.failed"
	AuditConfidentialAmountSet  AuditEvent = "confidential.amount_recorded"
	AuditConfidentialAmountFail AuditEvent = "confidential.amount_failed"
)

type AuditEntry struct {
	SessionID string     `json:"-"`
	Event     AuditEvent `json:"event"`
	Detail    string     `json:"detail,omitempty"`
	At        time.Time  `json:"at"`
}
