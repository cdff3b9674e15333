package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CronRepository interface {
	SaveCron(ctx context.Context, c *Cron) (*Cron, error)
	DeleteCron(ctx context.Context, id uuid.UUID) error
	// DeleteStale removes run locks older than the cutoff, left behind by a
	// worker that died mid-run.
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// CronUseCase guards a scheduled job so a single instance runs it at a time.
// CreateCron takes the lock and fails with ErrRunning while it is held.
type CronUseCase interface {
	CreateCron(ctx context.Context, id uuid.UUID) error
	DeleteCron(ctx context.Context, id uuid.UUID) error
}
