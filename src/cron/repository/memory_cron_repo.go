package repository

import (
	"context"
	"sync"
	"time"

	"github.com/MMN3003/payagent/src/cron/domain"
	"github.com/google/uuid"
)

var _ domain.CronRepository = (*MemoryCronRepo)(nil)

// MemoryCronRepo keeps run locks in process, for single instance deployments
// and tests.
type MemoryCronRepo struct {
	mu    sync.Mutex
	locks map[uuid.UUID]time.Time
}

func NewMemoryCronRepo() *MemoryCronRepo {
	return &MemoryCronRepo{locks: make(map[uuid.UUID]time.Time)}
}

func (r *MemoryCronRepo) SaveCron(_ context.Context, c *domain.Cron) (*domain.Cron, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.locks[c.ID]; held {
		return nil, domain.ErrRunning
	}
	r.locks[c.ID] = c.CreatedAt
	return &domain.Cron{ID: c.ID, CreatedAt: c.CreatedAt}, nil
}

func (r *MemoryCronRepo) DeleteCron(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, id)
	return nil
}

func (r *MemoryCronRepo) DeleteStale(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, at := range r.locks {
		if at.Before(olderThan) {
			delete(r.locks, id)
			n++
		}
	}
	return n, nil
}
