package usecase

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/MMN3003/payagent/src/cron/repository"
	cronusecase "github.com/MMN3003/payagent/src/cron/usecase"
	"github.com/MMN3003/payagent/src/logger"
	cron_adapter "github.com/MMN3003/payagent/src/settlement/adapter/cron"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepCounter struct {
	domain.SettlementUsecase
	runs atomic.Int32
}

func (s *sweepCounter) SweepCommissions(context.Context) (int, error) {
	s.runs.Add(1)
	return 0, nil
}

func TestCommissionSweepSkipsWhileLocked(t *testing.T) {
	ctx := context.Background()
	ca := cron_adapter.NewCronPort(cronusecase.NewService(repository.NewMemoryCronRepo(), logger.Nop(), 0))
	svc := &sweepCounter{}

	handleCommissionSweep(ctx, svc, ca, logger.Nop())
	assert.EqualValues(t, 1, svc.runs.Load())

	require.NoError(t, ca.CreateCron(ctx, CommissionSweepCronID))
	handleCommissionSweep(ctx, svc, ca, logger.Nop())
	assert.EqualValues(t, 1, svc.runs.Load())

	require.NoError(t, ca.DeleteCron(ctx, CommissionSweepCronID))
	handleCommissionSweep(ctx, svc, ca, logger.Nop())
	assert.EqualValues(t, 2, svc.runs.Load())
}

func TestNewCronServiceRejectsBadSchedule(t *testing.T) {
	c := cron.New(cron.WithSeconds())
	ca := cron_adapter.NewCronPort(cronusecase.NewService(repository.NewMemoryCronRepo(), logger.Nop(), 0))

	_, err := NewCronService(c, "not a schedule", &sweepCounter{}, ca, logger.Nop())
	assert.Error(t, err)

	id, err := NewCronService(c, "0 * * * * *", &sweepCounter{}, ca, logger.Nop())
	require.NoError(t, err)
	assert.NotZero(t, id)
}
