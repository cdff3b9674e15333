package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MMN3003/payagent/src/logger"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var _ domain.PaymentRepository = (*PaymentRepo)(nil)

// ---------- PAYMENTS ----------

type Payment struct {
	ID                  string `gorm:"primaryKey"`
	SessionID           string `gorm:"uniqueIndex"`
	TransactionRef      string `gorm:"index"`
	Payer               string
	Amount              decimal.Decimal `gorm:"type:numeric(38,18)"`
	Currency            string
	CommissionBps       int
	CommissionAmount    decimal.Decimal `gorm:"type:numeric(38,18)"`
	NetAmount           decimal.Decimal `gorm:"type:numeric(38,18)"`
	Status              string          `gorm:"index"`
	CommissionTxRef     string
	CommissionAttempts  int
	LastCommissionError string
	EncryptedAmount     string `gorm:"type:text"`
	CreatedAt           time.Time
	SettledAt           time.Time `gorm:"index"`
	UpdatedAt           time.Time
}

// ---------- REPO ----------

type PaymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, log *logger.Logger) *PaymentRepo {
	if err := db.AutoMigrate(&Payment{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	return &PaymentRepo{db: db, log: log}
}

// ---------- PAYMENT CRUD ----------

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	model := Payment{
		ID:                 p.ID,
		SessionID:          p.SessionID,
		TransactionRef:     p.TransactionRef,
		Payer:              p.Payer,
		Amount:             p.Amount,
		Currency:           string(p.Currency),
		CommissionBps:      p.CommissionBps,
		CommissionAmount:   p.CommissionAmount,
		NetAmount:          p.NetAmount,
		Status:             string(p.Status),
		CommissionAttempts: p.CommissionAttempts,
		EncryptedAmount:    p.EncryptedAmount,
		CreatedAt:          p.CreatedAt,
		SettledAt:          p.SettledAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrPaymentExists
		}
		return err
	}
	return nil
}

func (r *PaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	var p Payment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomainPayment(&p), nil
}

func (r *PaymentRepo) UpdateCommission(ctx context.Context, sessionID string, u domain.CommissionUpdate) error {
	res := r.db.WithContext(ctx).Model(&Payment{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":                string(u.Status),
			"commission_tx_ref":     u.TxRef,
			"commission_attempts":   u.Attempts,
			"last_commission_error": u.LastError,
			"updated_at":            u.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payment for session %s not found", sessionID)
	}
	return nil
}

func (r *PaymentRepo) ClaimCommission(ctx context.Context, sessionID string, from domain.PaymentStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Payment{}).
		Where("session_id = ? AND status = ?", sessionID, string(from)).
		Updates(map[string]interface{}{
			"status":     string(domain.PaymentCommissionTransferring),
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRepo) SetEncryptedAmount(ctx context.Context, sessionID, ciphertext string) error {
	return r.db.WithContext(ctx).Model(&Payment{}).
		Where("session_id = ?", sessionID).
		Update("encrypted_amount", ciphertext).Error
}

func (r *PaymentRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Payment, int64, error) {
	q := r.db.WithContext(ctx).Model(&Payment{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ps []Payment
	err := q.Order("settled_at DESC, id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&ps).Error
	if err != nil {
		return nil, 0, err
	}
	return r.toDomainPayments(ps), total, nil
}

func (r *PaymentRepo) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]domain.Payment, error) {
	var ps []Payment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND commission_attempts < ?",
			[]string{string(domain.PaymentCommissionPending), string(domain.PaymentCommissionFailed)}, maxAttempts).
		Order("settled_at ASC").
		Limit(limit).
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainPayments(ps), nil
}

// ---------- HELPERS ----------

func (r *PaymentRepo) toDomainPayment(p *Payment) *domain.Payment {
	return &domain.Payment{
		ID:                  p.ID,
		SessionID:           p.SessionID,
		TransactionRef:      p.TransactionRef,
		Payer:               p.Payer,
		Amount:              p.Amount,
		Currency:            quotedomain.Currency(p.Currency),
		CommissionBps:       p.CommissionBps,
		CommissionAmount:    p.CommissionAmount,
		NetAmount:           p.NetAmount,
		Status:              domain.PaymentStatus(p.Status),
		CommissionTxRef:     p.CommissionTxRef,
		CommissionAttempts:  p.CommissionAttempts,
		LastCommissionError: p.LastCommissionError,
		EncryptedAmount:     p.EncryptedAmount,
		CreatedAt:           p.CreatedAt,
		SettledAt:           p.SettledAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func (r *PaymentRepo) toDomainPayments(ps []Payment) []domain.Payment {
	out := make([]domain.Payment, 0, len(ps))
	for i := range ps {
		out = append(out, *r.toDomainPayment(&ps[i]))
	}
	return out
}
