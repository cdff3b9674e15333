package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MMN3003/payagent/src/logger"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/session/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ domain.SessionRepository = (*SessionRepo)(nil)

// ---------- SESSIONS ----------

type Session struct {
	ID              string            `gorm:"primaryKey"`
	QuoteID         string            `gorm:"uniqueIndex"`
	Quote           quotedomain.Quote `gorm:"serializer:json"`
	FacilitatorURL  string
	MerchantAddress string
	Nonce           string          `gorm:"uniqueIndex"`
	Amount          decimal.Decimal `gorm:"type:numeric(38,18)"`
	Currency        string
	Memo            string `gorm:"size:120"`
	Confidential    bool
	Status          string `gorm:"index"`
	TransactionRef  string
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       time.Time
	SettledAt       *time.Time
}

type SessionAudit struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	Event     string
	Detail    string
	At        time.Time
}

// ---------- REPO ----------

type SessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, log *logger.Logger) *SessionRepo {
	if err := db.AutoMigrate(&Session{}, &SessionAudit{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	return &SessionRepo{db: db, log: log}
}

// ---------- SESSION CRUD ----------

func (r *SessionRepo) Save(ctx context.Context, s *domain.Session) error {
	model := Session{
		ID:              s.ID,
		QuoteID:         s.Quote.ID,
		Quote:           s.Quote,
		FacilitatorURL:  s.FacilitatorURL,
		MerchantAddress: s.MerchantAddress,
		Nonce:           s.Nonce,
		Amount:          s.Amount,
		Currency:        string(s.Currency),
		Memo:            s.Memo,
		Confidential:    s.Confidential,
		Status:          string(s.Status),
		TransactionRef:  s.TransactionRef,
		FailureReason:   s.FailureReason,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		ExpiresAt:       s.ExpiresAt,
		SettledAt:       s.SettledAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateID
		}
		return err
	}
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomainSession(&s), nil
}

func (r *SessionRepo) Transition(ctx context.Context, id string, t domain.Transition) (bool, error) {
	updates := map[string]interface{}{
		"status":     string(t.To),
		"updated_at": t.At,
	}
	if t.TransactionRef != "" {
		updates["transaction_ref"] = t.TransactionRef
	}
	if t.FailureReason != "" {
		updates["failure_reason"] = t.FailureReason
	}
	if t.SettledAt != nil {
		updates["settled_at"] = *t.SettledAt
	}
	res := r.db.WithContext(ctx).
		Model(&Session{}).
		Where("id = ? AND status = ?", id, string(t.From)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ---------- AUDIT ----------

func (r *SessionRepo) AppendAudit(ctx context.Context, e domain.AuditEntry) error {
	return r.db.WithContext(ctx).Create(&SessionAudit{
		SessionID: e.SessionID,
		Event:     string(e.Event),
		Detail:    e.Detail,
		At:        e.At,
	}).Error
}

func (r *SessionRepo) ListAudit(ctx context.Context, sessionID string) ([]domain.AuditEntry, error) {
	var rows []SessionAudit
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(rows))
	for _, a := range rows {
		out = append(out, domain.AuditEntry{
			SessionID: a.SessionID,
			Event:     domain.AuditEvent(a.Event),
			Detail:    a.Detail,
			At:        a.At,
		})
	}
	return out, nil
}

// ---------- HELPERS ----------

func (r *SessionRepo) toDomainSession(s *Session) *domain.Session {
	q := s.Quote
	q.ClaimedBy = s.ID
	return &domain.Session{
		ID:              s.ID,
		Quote:           q,
		FacilitatorURL:  s.FacilitatorURL,
		MerchantAddress: s.MerchantAddress,
		Nonce:           s.Nonce,
		Amount:          s.Amount,
		Currency:        quotedomain.Currency(s.Currency),
		Memo:            s.Memo,
		Confidential:    s.Confidential,
		Status:          domain.Status(s.Status),
		TransactionRef:  s.TransactionRef,
		FailureReason:   s.FailureReason,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		ExpiresAt:       s.ExpiresAt,
		SettledAt:       s.SettledAt,
	}
}
