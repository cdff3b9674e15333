package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/MMN3003/payagent/src/cron/domain"
	"github.com/MMN3003/payagent/src/cron/repository"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryCronRepo(), logger.Nop(), 0)
	id := uuid.New()

	require.NoError(t, svc.CreateCron(ctx, id))
	assert.ErrorIs(t, svc.CreateCron(ctx, id), domain.ErrRunning)

	require.NoError(t, svc.DeleteCron(ctx, id))
	assert.NoError(t, svc.CreateCron(ctx, id))
}

func TestAbandonedLockIsReclaimed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(repository.NewMemoryCronRepo(), logger.Nop(), 10*time.Minute)
	svc.now = func() time.Time { return now }
	id := uuid.New()

	require.NoError(t, svc.CreateCron(ctx, id))
	now = now.Add(5 * time.Minute)
	assert.ErrorIs(t, svc.CreateCron(ctx, id), domain.ErrRunning)

	now = now.Add(6 * time.Minute)
	assert.NoError(t, svc.CreateCron(ctx, id))
}
