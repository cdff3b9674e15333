package usecase

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/MMN3003/payagent/src/apperror"
	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"golang.org/x/sync/errgroup"
)

var errEmptyCommissionRef = errors.New("commission transfer returned no transaction reference")

// RetryCommission re-runs only the commission leg of a settled payment, with
// the amounts fixed at settlement.
func (s *Service) RetryCommission(ctx context.Context, sessionID string) (*domain.RetryResult, error) {
	sess, err := s.sessions.Refresh(ctx, sessionID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if sess.Status != sessiondomain.StatusSettled {
		return nil, apperror.ErrNothingToRetry.WithMessage("session is " + string(sess.Status.Public()))
	}
	return s.attemptCommission(ctx, sessionID)
}

func (s *Service) attemptCommission(ctx context.Context, sessionID string) (*domain.RetryResult, error) {
	unlock, err := s.lock(ctx, commissionLockKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	if p == nil || !p.Status.Retryable() {
		return nil, apperror.ErrNothingToRetry
	}
	if s.commission == nil {
		return retryResult(p), apperror.ErrCommissionFailed.WithMessage("commission transfer is not configured")
	}

	log := s.logger.WithField("session_id", sessionID)
	bg := context.WithoutCancel(ctx)

	// Claim the leg in the store so no other holder can send it again, even
	// if our lock lapses while the transfer is mined.
	won, err := s.payments.ClaimCommission(bg, sessionID, p.Status, s.now().UTC())
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	if !won {
		return nil, apperror.ErrNothingToRetry
	}

	tctx, cancel := context.WithTimeout(bg, s.settings.CommissionTimeout)
	ref, terr := s.commission.Transfer(tctx, *p)
	cancel()
	if terr == nil && ref == "" {
		terr = errEmptyCommissionRef
	}

	update := domain.CommissionUpdate{
		Status:    domain.PaymentSettled,
		TxRef:     ref,
		Attempts:  p.CommissionAttempts + 1,
		UpdatedAt: s.now().UTC(),
	}
	if terr != nil {
		update.Status = domain.PaymentCommissionFailed
		update.TxRef = ""
		update.LastError = terr.Error()
	}
	if err := s.payments.UpdateCommission(bg, sessionID, update); err != nil {
		log.Errorf("record commission attempt %d: %v", update.Attempts, err)
		return nil, apperror.ErrInternal.Wrap(err)
	}
	p.Status = update.Status
	p.CommissionTxRef = update.TxRef
	p.CommissionAttempts = update.Attempts
	p.LastCommissionError = update.LastError

	ev := domain.Event{
		SessionID:        sessionID,
		TransactionRef:   update.TxRef,
		Amount:           p.Amount,
		Currency:         string(p.Currency),
		CommissionAmount: p.CommissionAmount,
		NetAmount:        p.NetAmount,
	}
	if terr != nil {
		log.Warnf("commission attempt %d failed: %v", update.Attempts, terr)
		s.sessions.Audit(bg, sessionID, sessiondomain.AuditCommissionFailed, terr.Error())
		ev.Type = domain.EventCommissionFailed
		ev.Reason = terr.Error()
		s.publish(bg, ev)
		return retryResult(p), apperror.ErrCommissionFailed.Wrap(terr)
	}

	log.Infof("commission %s transferred tx=%s", p.CommissionAmount, ref)
	s.sessions.Audit(bg, sessionID, sessiondomain.AuditCommissionTransferred, "tx "+ref)
	ev.Type = domain.EventCommissionTransferred
	s.publish(bg, ev)
	return retryResult(p), nil
}

// SweepCommissions retries open commission legs with bounded parallelism and
// reports how many were transferred.
func (s *Service) SweepCommissions(ctx context.Context) (int, error) {
	open, err := s.payments.ListRetryable(ctx, s.settings.CommissionMaxAttempts, s.settings.SweepBatchSize)
	if err != nil {
		return 0, apperror.ErrInternal.Wrap(err)
	}
	if len(open) == 0 {
		return 0, nil
	}

	var transferred atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.SweepParallelism)
	for _, p := range open {
		sessionID := p.SessionID
		g.Go(func() error {
			_, err := s.RetryCommission(gctx, sessionID)
			switch {
			case err == nil:
				transferred.Add(1)
			case errors.Is(err, apperror.ErrNothingToRetry):
			default:
				s.logger.WithField("session_id", sessionID).Debugf("sweep: %v", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(transferred.Load())
	s.logger.Infof("commission sweep: %d/%d transferred", n, len(open))
	return n, nil
}

func retryResult(p *domain.Payment) *domain.RetryResult {
	return &domain.RetryResult{
		SessionID:          p.SessionID,
		PaymentStatus:      p.Status,
		CommissionTxRef:    p.CommissionTxRef,
		CommissionAttempts: p.CommissionAttempts,
	}
}
