package usecase

import (
	"context"
	"errors"

	crondomain "github.com/MMN3003/payagent/src/cron/domain"
	"github.com/MMN3003/payagent/src/logger"
	cron_adapter "github.com/MMN3003/payagent/src/settlement/adapter/cron"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var CommissionSweepCronID = uuid.MustParse("5b0d7c2e-41a9-4f63-9e1d-8c2f6a3b7d10")

// NewCronService schedules the commission sweep on c.
func NewCronService(c *cron.Cron, schedule string, s domain.SettlementUsecase, ca cron_adapter.CronAdapter, logg *logger.Logger) (cron.EntryID, error) {
	return c.AddFunc(schedule, func() {
		handleCommissionSweep(context.Background(), s, ca, logg)
	})
}

func handleCommissionSweep(ctx context.Context, s domain.SettlementUsecase, ca cron_adapter.CronAdapter, logg *logger.Logger) {
	err := ca.CreateCron(ctx, CommissionSweepCronID)
	if err != nil {
		if !errors.Is(err, crondomain.ErrRunning) {
			logg.Errorf("commission sweep lock: %v", err)
		}
		return
	}
	defer func() {
		if err := ca.DeleteCron(ctx, CommissionSweepCronID); err != nil {
			logg.Errorf("commission sweep unlock: %v", err)
		}
	}()

	if _, err := s.SweepCommissions(ctx); err != nil {
		logg.Errorf("commission sweep: %v", err)
	}
}
