package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MMN3003/payagent/src/settlement/domain"
)

var _ domain.PaymentRepository = (*MemoryPaymentRepo)(nil)

// MemoryPaymentRepo keys payments by session id.
type MemoryPaymentRepo struct {
	mu       sync.RWMutex
	payments map[string]domain.Payment
}

func NewMemoryPaymentRepo() *MemoryPaymentRepo {
	return &MemoryPaymentRepo{payments: make(map[string]domain.Payment)}
}

func (r *MemoryPaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.payments[p.SessionID]; exists {
		return domain.ErrPaymentExists
	}
	r.payments[p.SessionID] = *p
	return nil
}

func (r *MemoryPaymentRepo) GetBySessionID(_ context.Context, sessionID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[sessionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryPaymentRepo) UpdateCommission(_ context.Context, sessionID string, u domain.CommissionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[sessionID]
	if !ok {
		return fmt.Errorf("payment for session %s not found", sessionID)
	}
	p.Status = u.Status
	p.CommissionTxRef = u.TxRef
	p.CommissionAttempts = u.Attempts
	p.LastCommissionError = u.LastError
	p.UpdatedAt = u.UpdatedAt
	r.payments[sessionID] = p
	return nil
}

func (r *MemoryPaymentRepo) ClaimCommission(_ context.Context, sessionID string, from domain.PaymentStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[sessionID]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = domain.PaymentCommissionTransferring
	p.UpdatedAt = at
	r.payments[sessionID] = p
	return true, nil
}

func (r *MemoryPaymentRepo) SetEncryptedAmount(_ context.Context, sessionID, ciphertext string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[sessionID]
	if !ok {
		return fmt.Errorf("payment for session %s not found", sessionID)
	}
	p.EncryptedAmount = ciphertext
	r.payments[sessionID] = p
	return nil
}

// List returns newest first.
func (r *MemoryPaymentRepo) List(_ context.Context, f domain.ListFilter) ([]domain.Payment, int64, error) {
	r.mu.RLock()
	var all []domain.Payment
	for _, p := range r.payments {
		if f.Status == "" || p.Status == f.Status {
			all = append(all, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].SettledAt.Equal(all[j].SettledAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].SettledAt.After(all[j].SettledAt)
	})

	total := int64(len(all))
	start := (f.Page - 1) * f.PageSize
	if start < 0 || start >= len(all) {
		return []domain.Payment{}, total, nil
	}
	end := start + f.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *MemoryPaymentRepo) ListRetryable(_ context.Context, maxAttempts, limit int) ([]domain.Payment, error) {
	r.mu.RLock()
	var out []domain.Payment
	for _, p := range r.payments {
		if p.Status.Retryable() && p.CommissionAttempts < maxAttempts {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SettledAt.Before(out[j].SettledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
