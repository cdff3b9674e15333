package repository

import (
	"context"
	"sync"

	"github.com/MMN3003/payagent/src/session/domain"
)

var _ domain.SessionRepository = (*MemorySessionRepo)(nil)

// MemorySessionRepo is a mutex guarded keyed store. Reads hand out copies so
// callers never alias stored state.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	audit    map[string][]domain.AuditEntry
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]domain.Session),
		audit:    make(map[string][]domain.AuditEntry),
	}
}

func (r *MemorySessionRepo) Save(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.sessions[s.ID] = clone(*s)
	return nil
}

func (r *MemorySessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	out := clone(s)
	return &out, nil
}

func (r *MemorySessionRepo) Transition(_ context.Context, id string, t domain.Transition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != t.From {
		return false, nil
	}
	s.Status = t.To
	s.UpdatedAt = t.At
	if t.TransactionRef != "" {
		s.TransactionRef = t.TransactionRef
	}
	if t.FailureReason != "" {
		s.FailureReason = t.FailureReason
	}
	if t.SettledAt != nil {
		at := *t.SettledAt
		s.SettledAt = &at
	}
	r.sessions[id] = s
	return true, nil
}

func (r *MemorySessionRepo) AppendAudit(_ context.Context, e domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit[e.SessionID] = append(r.audit[e.SessionID], e)
	return nil
}

func (r *MemorySessionRepo) ListAudit(_ context.Context, sessionID string) ([]domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.audit[sessionID]
	out := make([]domain.AuditEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func clone(s domain.Session) domain.Session {
	if s.SettledAt != nil {
		at := *s.SettledAt
		s.SettledAt = &at
	}
	return s
}
