package usecase

import (
	"context"

	"github.com/MMN3003/payagent/src/apperror"
	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetStatus reports the public view of a session, expiring it first if it is
// overdue.
func (s *Service) GetStatus(ctx context.Context, sessionID string) (*domain.StatusView, error) {
	now := s.now().UTC()
	sess, err := s.sessions.Refresh(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}
	if sess.Status == sessiondomain.StatusSettling && (sess.TransactionRef != "" || sess.ExpiredAt(now)) {
		if recovered := s.tryRecover(ctx, sessionID); recovered != nil {
			sess = recovered
		}
	}
	audit, err := s.sessions.AuditLog(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &domain.StatusView{
		SessionID:      sess.ID,
		Status:         sess.Status.Public(),
		UpdatedAt:      sess.UpdatedAt,
		ExpiresAt:      sess.ExpiresAt,
		TransactionRef: sess.TransactionRef,
		FailureReason:  sess.FailureReason,
		Quote:          sess.Quote,
		AuditLog:       audit,
	}
	if sess.Status != sessiondomain.StatusSettled {
		return view, nil
	}

	p, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	sv := &domain.SettlementView{
		TransactionRef: sess.TransactionRef,
		TotalAmount:    sess.Amount,
		NetAmount:      sess.Amount,
	}
	if sess.SettledAt != nil {
		sv.SettledAt = *sess.SettledAt
	}
	if p != nil {
		sv.CommissionBps = p.CommissionBps
		sv.CommissionAmount = p.CommissionAmount
		sv.NetAmount = p.NetAmount
		sv.PaymentStatus = p.Status
		sv.CommissionTxRef = p.CommissionTxRef
		sv.CommissionAttempts = p.CommissionAttempts
		sv.EncryptedAmount = p.EncryptedAmount
	}
	view.Settlement = sv
	return view, nil
}

// tryRecover resolves a session stuck in settling when the settle lock is
// free. It gives up quietly when a live attempt holds the lock.
func (s *Service) tryRecover(ctx context.Context, sessionID string) *sessiondomain.Session {
	log := s.logger.WithField("session_id", sessionID)
	lctx, cancel := context.WithTimeout(ctx, s.settings.RecoveryWait)
	defer cancel()
	unlock, err := s.locker.Lock(lctx, settleLockKey(sessionID))
	if err != nil {
		log.Debugf("status recovery skipped: %v", err)
		return nil
	}
	defer unlock()

	sess, err := s.sessions.Refresh(ctx, sessionID, s.now().UTC())
	if err != nil || sess.Status != sessiondomain.StatusSettling {
		return sess
	}
	if _, err := s.recoverSettling(ctx, sess, false); err != nil {
		log.Debugf("status recovery: %v", err)
	}
	sess, err = s.sessions.Refresh(ctx, sessionID, s.now().UTC())
	if err != nil {
		return nil
	}
	return sess
}

func (s *Service) ListPayments(ctx context.Context, f domain.ListFilter) (*domain.PaymentPage, error) {
	switch f.Status {
	case "", domain.PaymentSettled, domain.PaymentCommissionPending, domain.PaymentCommissionFailed,
		domain.PaymentCommissionTransferring:
	default:
		return nil, apperror.ErrInvalidInput.WithMessage("unknown payment status " + string(f.Status))
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	items, total, err := s.payments.List(ctx, f)
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	return &domain.PaymentPage{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// RevealAmount decrypts the confidential amount recorded for a session.
func (s *Service) RevealAmount(ctx context.Context, sessionID string) (string, error) {
	p, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		return "", apperror.ErrInternal.Wrap(err)
	}
	if p == nil {
		return "", apperror.ErrPaymentNotFound
	}
	if p.EncryptedAmount == "" {
		return "", apperror.ErrPaymentNotFound.WithMessage("no confidential amount recorded for this payment")
	}
	if s.encryptor == nil {
		return "", apperror.ErrInternal.WithMessage("encryption service not configured")
	}
	amount, err := s.encryptor.Decrypt(ctx, p.EncryptedAmount)
	if err != nil {
		s.logger.WithField("session_id", sessionID).Errorf("decrypt amount: %v", err)
		return "", apperror.ErrInternal.Wrap(err)
	}
	return amount, nil
}
