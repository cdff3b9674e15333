package repository

import (
	"context"
	"sync"

	"github.com/MMN3003/payagent/src/quote/domain"
)

var _ domain.QuoteRepository = (*MemoryQuoteRepo)(nil)

// MemoryQuoteRepo keeps quotes in process. Used when no database is configured.
type MemoryQuoteRepo struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

func NewMemoryQuoteRepo() *MemoryQuoteRepo {
	return &MemoryQuoteRepo{quotes: make(map[string]domain.Quote)}
}

func (r *MemoryQuoteRepo) Save(_ context.Context, q *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.quotes[q.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.quotes[q.ID] = *q
	return nil
}

func (r *MemoryQuoteRepo) GetByID(_ context.Context, id string) (*domain.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (r *MemoryQuoteRepo) Claim(_ context.Context, id, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.Claimed() {
		return false, nil
	}
	q.ClaimedBy = sessionID
	r.quotes[id] = q
	return true, nil
}

func (r *MemoryQuoteRepo) Release(_ context.Context, id, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.ClaimedBy != sessionID {
		return false, nil
	}
	q.ClaimedBy = ""
	r.quotes[id] = q
	return true, nil
}
