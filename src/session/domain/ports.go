package domain

import (
	"context"
	"errors"
	"time"

	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/shopspring/decimal"
)

var ErrDuplicateID = errors.New("session id already exists")

// SessionRepository persistence port. GetByID returns nil, nil when absent.
type SessionRepository interface {
	Save(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	// Transition applies t only if the stored status equals t.From.
	Transition(ctx context.Context, id string, t Transition) (bool, error)
	AppendAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, sessionID string) ([]AuditEntry, error)
}

type OpenSessionRequest struct {
	QuoteID      string
	Amount       decimal.Decimal
	Currency     string
	Memo         string
	Confidential bool
}

type SessionUsecase interface {
	OpenSession(ctx context.Context, req OpenSessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	// Refresh re-reads the session and lazily moves an overdue pending
	// session to expired.
	Refresh(ctx context.Context, id string, now time.Time) (*Session, error)
	Transition(ctx context.Context, id string, t Transition) (bool, error)
	Audit(ctx context.Context, sessionID string, event AuditEvent, detail string)
	AuditLog(ctx context.Context, sessionID string) ([]AuditEntry, error)
}

// QuoteAdapter is the slice of the quote ledger sessions depend on.
type QuoteAdapter interface {
	GetQuote(ctx context.Context, id string) (*quotedomain.Quote, error)
	ClaimQuote(ctx context.Context, id, sessionID string) error
	ReleaseQuote(ctx context.Context, id, sessionID string) error
}
