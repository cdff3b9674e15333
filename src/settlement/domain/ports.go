package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
)

var ErrPaymentExists = errors.New("payment already recorded for session")

// PaymentRepository persistence port. GetBySessionID returns nil, nil when
// absent.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetBySessionID(ctx context.Context, sessionID string) (*Payment, error)
	UpdateCommission(ctx context.Context, sessionID string, u CommissionUpdate) error
	// ClaimCommission moves the payment from status from to
	// commission_transferring and reports whether this caller won.
	ClaimCommission(ctx context.Context, sessionID string, from PaymentStatus, at time.Time) (bool, error)
	SetEncryptedAmount(ctx context.Context, sessionID, ciphertext string) error
	List(ctx context.Context, f ListFilter) ([]Payment, int64, error)
	// ListRetryable returns payments whose commission leg is still open and
	// that have been attempted fewer than maxAttempts times, oldest first.
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]Payment, error)
}

// Facilitator verifies a proof against the session requirements and settles
// it on chain. A definitive rejection is returned as *VerificationError; any
// other error is treated as transient.
type Facilitator interface {
	VerifyAndSettle(ctx context.Context, proof json.RawMessage, req Requirements) (*FacilitatorReceipt, error)
}

// CommissionTransfer moves the platform commission of p and returns the
// transaction reference.
type CommissionTransfer interface {
	Transfer(ctx context.Context, p Payment) (string, error)
}

type Encryptor interface {
	Encrypt(ctx context.Context, amount string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// SessionAdapter is the slice of the session registry settlement needs.
type SessionAdapter interface {
	Refresh(ctx context.Context, id string, now time.Time) (*sessiondomain.Session, error)
	Transition(ctx context.Context, id string, t sessiondomain.Transition) (bool, error)
	Audit(ctx context.Context, sessionID string, event sessiondomain.AuditEvent, detail string)
	AuditLog(ctx context.Context, sessionID string) ([]sessiondomain.AuditEntry, error)
}

type SettlementUsecase interface {
	Settle(ctx context.Context, sessionID string, proof json.RawMessage) (*SettlementResult, error)
	// RetryCommission may return a non-nil result together with a
	// commission_failed error.
	RetryCommission(ctx context.Context, sessionID string) (*RetryResult, error)
	GetStatus(ctx context.Context, sessionID string) (*StatusView, error)
	ListPayments(ctx context.Context, f ListFilter) (*PaymentPage, error)
	RevealAmount(ctx context.Context, sessionID string) (string, error)
	SweepCommissions(ctx context.Context) (int, error)
}
