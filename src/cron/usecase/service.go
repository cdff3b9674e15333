package usecase

import (
	"context"
	"time"

	"github.com/MMN3003/payagent/src/cron/domain"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/google/uuid"
)

var _ domain.CronUseCase = (*Service)(nil)

type Service struct {
	cronRepo   domain.CronRepository
	logger     *logger.Logger
	staleAfter time.Duration
	now        func() time.Time
}

// NewService builds the run lock service. Locks older than staleAfter are
// considered abandoned and reclaimed; zero disables reclaiming.
func NewService(cronRepo domain.CronRepository, logg *logger.Logger, staleAfter time.Duration) *Service {
	s := &Service{
		cronRepo:   cronRepo,
		logger:     logg,
		staleAfter: staleAfter,
		now:        time.Now,
	}
	return s
}

// CreateCron takes the run lock for id. It fails with domain.ErrRunning while
// another worker holds it.
func (s *Service) CreateCron(ctx context.Context, id uuid.UUID) error {
	if s.staleAfter > 0 {
		n, err := s.cronRepo.DeleteStale(ctx, s.now().Add(-s.staleAfter))
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Warnf("reclaimed %d abandoned cron locks", n)
		}
	}
	_, err := s.cronRepo.SaveCron(ctx, &domain.Cron{ID: id, CreatedAt: s.now().UTC()})
	return err
}

func (s *Service) DeleteCron(ctx context.Context, id uuid.UUID) error {
	return s.cronRepo.DeleteCron(ctx, id)
}
