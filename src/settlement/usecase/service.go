package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/keylock"
	"github.com/MMN3003/payagent/src/logger"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ domain.SettlementUsecase = (*Service)(nil)

type Settings struct {
	FacilitatorTimeout    time.Duration
	CommissionBps         int
	CommissionTimeout     time.Duration
	CommissionMaxAttempts int
	SweepBatchSize        int
	SweepParallelism      int
	// RecordAttempts and RecordBackoff bound the retries of the payment write
	// after the facilitator has settled.
	RecordAttempts int
	RecordBackoff  time.Duration
	// RecoveryWait bounds how long a status read waits for the settle lock
	// before reporting a stuck session as is.
	RecoveryWait time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.FacilitatorTimeout <= 0 {
		s.FacilitatorTimeout = 30 * time.Second
	}
	if s.CommissionTimeout <= 0 {
		s.CommissionTimeout = 2 * time.Minute
	}
	if s.CommissionMaxAttempts <= 0 {
		s.CommissionMaxAttempts = 5
	}
	if s.SweepBatchSize <= 0 {
		s.SweepBatchSize = 100
	}
	if s.SweepParallelism <= 0 {
		s.SweepParallelism = 4
	}
	if s.RecordAttempts <= 0 {
		s.RecordAttempts = 4
	}
	if s.RecordBackoff <= 0 {
		s.RecordBackoff = 250 * time.Millisecond
	}
	if s.RecoveryWait <= 0 {
		s.RecoveryWait = 2 * time.Second
	}
	return s
}

type Service struct {
	sessions    domain.SessionAdapter
	payments    domain.PaymentRepository
	facilitator domain.Facilitator
	locker      keylock.Locker
	commission  domain.CommissionTransfer
	encryptor   domain.Encryptor
	publisher   domain.EventPublisher
	logger      *logger.Logger
	settings    Settings
	now         func() time.Time
	newID       func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

// WithCommissionTransfer enables the commission leg. Without it payments
// settle with the commission recorded but never moved.
func WithCommissionTransfer(t domain.CommissionTransfer) Option {
	return func(s *Service) { s.commission = t }
}

func WithEncryptor(e domain.Encryptor) Option { return func(s *Service) { s.encryptor = e } }

func WithPublisher(p domain.EventPublisher) Option { return func(s *Service) { s.publisher = p } }

func NewService(
	sessions domain.SessionAdapter,
	payments domain.PaymentRepository,
	facilitator domain.Facilitator,
	locker keylock.Locker,
	logg *logger.Logger,
	settings Settings,
	opts ...Option,
) *Service {
	s := &Service{
		sessions:    sessions,
		payments:    payments,
		facilitator: facilitator,
		locker:      locker,
		logger:      logg,
		settings:    settings.withDefaults(),
		now:         time.Now,
		newID:       func() string { return "pay_" + uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func settleLockKey(sessionID string) string     { return "settle:" + sessionID }
func commissionLockKey(sessionID string) string { return "commission:" + sessionID }

// Settle verifies proof with the facilitator and finalises the session. It is
// idempotent once the session is settled or failed.
func (s *Service) Settle(ctx context.Context, sessionID string, proof json.RawMessage) (*domain.SettlementResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperror.ErrInvalidInput.WithMessage("sessionId is required")
	}
	if err := validateProof(proof); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Refresh(ctx, sessionID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if res, done, err := s.resolve(ctx, sess); done {
		return res, err
	}

	unlock, err := s.lock(ctx, settleLockKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err = s.sessions.Refresh(ctx, sessionID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if res, done, err := s.resolve(ctx, sess); done {
		return res, err
	}
	if sess.Status == sessiondomain.StatusSettling {
		return s.recoverSettling(ctx, sess, true)
	}

	commission, net, err := s.split(sess)
	if err != nil {
		return nil, err
	}

	won, err := s.sessions.Transition(ctx, sessionID, sessiondomain.Transition{
		From: sessiondomain.StatusPending,
		To:   sessiondomain.StatusSettling,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		sess, err = s.sessions.Refresh(ctx, sessionID, s.now().UTC())
		if err != nil {
			return nil, err
		}
		if res, done, err := s.resolve(ctx, sess); done {
			return res, err
		}
		return nil, apperror.ErrInternal.WithMessage("session changed state during settlement")
	}
	s.sessions.Audit(ctx, sessionID, sessiondomain.AuditSettlementStarted, "")

	// From here on the outcome must be recorded even if the client goes away.
	bg := context.WithoutCancel(ctx)
	fctx, cancel := context.WithTimeout(bg, s.settings.FacilitatorTimeout)
	receipt, err := s.facilitator.VerifyAndSettle(fctx, proof, domain.Requirements{
		PayTo:     sess.MerchantAddress,
		Amount:    sess.Amount,
		Currency:  sess.Currency,
		Nonce:     sess.Nonce,
		ExpiresAt: sess.ExpiresAt,
	})
	cancel()
	if err == nil && (receipt == nil || strings.TrimSpace(receipt.TransactionRef) == "") {
		err = &domain.VerificationError{Reason: "facilitator returned no transaction reference"}
	}

	var (
		verr *domain.VerificationError
		aerr *apperror.Error
	)
	switch {
	case errors.As(err, &verr):
		return nil, s.reject(bg, sess, verr.Reason)
	case errors.As(err, &aerr) && aerr.Kind == apperror.KindInternal:
		// misconfiguration: retrying cannot help, but the session stays usable
		_ = s.release(bg, sess, err)
		return nil, aerr
	case err != nil:
		return nil, s.release(bg, sess, err)
	}
	return s.complete(bg, sess, receipt, commission, net, true)
}

func (s *Service) split(sess *sessiondomain.Session) (commission, net decimal.Decimal, err error) {
	asset, ok := quotedomain.LookupAsset(string(sess.Currency))
	if !ok {
		return decimal.Zero, decimal.Zero, apperror.ErrUnsupportedCurrency
	}
	commission, net, err = domain.SplitCommission(sess.Amount, s.settings.CommissionBps, asset)
	if err != nil {
		return decimal.Zero, decimal.Zero, apperror.ErrInternal.Wrap(err)
	}
	return commission, net, nil
}

// recoverSettling resolves a session an earlier attempt left in settling. The
// caller holds the settle lock, so no facilitator call is in flight for it.
// A recorded transaction reference means funds moved and only the
// bookkeeping is missing. Without one the session expires once its deadline
// has passed, since the payment authorization cannot be used after it.
func (s *Service) recoverSettling(ctx context.Context, sess *sessiondomain.Session, inlineCommission bool) (*domain.SettlementResult, error) {
	log := s.logger.WithField("session_id", sess.ID)
	bg := context.WithoutCancel(ctx)
	now := s.now().UTC()

	if sess.TransactionRef != "" {
		log.Warnf("completing settlement tx=%s left unrecorded by an earlier attempt", sess.TransactionRef)
		commission, net, err := s.split(sess)
		if err != nil {
			return nil, err
		}
		receipt := &domain.FacilitatorReceipt{TransactionRef: sess.TransactionRef}
		return s.complete(bg, sess, receipt, commission, net, inlineCommission)
	}

	if !sess.ExpiredAt(now) {
		log.Errorf("session left in settling by an earlier attempt")
		return nil, apperror.ErrTimeout.WithMessage("an earlier settlement attempt is still unresolved")
	}

	won, err := s.sessions.Transition(bg, sess.ID, sessiondomain.Transition{
		From: sessiondomain.StatusSettling,
		To:   sessiondomain.StatusExpired,
		At:   now,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		stored, err := s.sessions.Refresh(bg, sess.ID, now)
		if err != nil {
			return nil, err
		}
		if res, done, err := s.resolve(bg, stored); done {
			return res, err
		}
		return nil, apperror.ErrInternal.WithMessage("session changed state during recovery")
	}
	log.Warnf("abandoned settlement attempt expired")
	s.sessions.Audit(bg, sess.ID, sessiondomain.AuditSessionExpired, "abandoned settlement attempt")
	return nil, apperror.ErrSessionExpired
}

// resolve answers from stored state when no facilitator call is needed.
func (s *Service) resolve(ctx context.Context, sess *sessiondomain.Session) (*domain.SettlementResult, bool, error) {
	switch sess.Status {
	case sessiondomain.StatusSettled:
		p, err := s.payments.GetBySessionID(ctx, sess.ID)
		if err != nil {
			return nil, true, apperror.ErrInternal.Wrap(err)
		}
		return resultFrom(sess, p), true, nil
	case sessiondomain.StatusFailed:
		return nil, true, apperror.ErrVerificationFailed.WithMessage(sess.FailureReason)
	case sessiondomain.StatusExpired:
		return nil, true, apperror.ErrSessionExpired
	case sessiondomain.StatusPending:
		if sess.ExpiredAt(s.now().UTC()) {
			return nil, true, apperror.ErrSessionExpired
		}
	}
	return nil, false, nil
}

func (s *Service) reject(ctx context.Context, sess *sessiondomain.Session, reason string) error {
	log := s.logger.WithField("session_id", sess.ID)
	won, err := s.sessions.Transition(ctx, sess.ID, sessiondomain.Transition{
		From:          sessiondomain.StatusSettling,
		To:            sessiondomain.StatusFailed,
		FailureReason: reason,
	})
	if err != nil {
		return err
	}
	if !won {
		log.Errorf("lost settling->failed transition, reason was %q", reason)
		return apperror.ErrInternal.WithMessage("session changed state during settlement")
	}
	log.Infof("payment rejected: %s", reason)
	s.sessions.Audit(ctx, sess.ID, sessiondomain.AuditSettlementFailed, reason)
	s.publish(ctx, domain.Event{
		Type:      domain.EventPaymentFailed,
		SessionID: sess.ID,
		Amount:    sess.Amount,
		Currency:  string(sess.Currency),
		Reason:    reason,
	})
	return apperror.ErrVerificationFailed.WithMessage(reason)
}

// release hands the session back to pending after a transient failure so the
// client can retry with a fresh proof.
func (s *Service) release(ctx context.Context, sess *sessiondomain.Session, cause error) error {
	log := s.logger.WithField("session_id", sess.ID)
	log.Warnf("facilitator call failed: %v", cause)

	won, err := s.sessions.Transition(ctx, sess.ID, sessiondomain.Transition{
		From: sessiondomain.StatusSettling,
		To:   sessiondomain.StatusPending,
	})
	if err != nil {
		return err
	}
	if !won {
		log.Errorf("lost settling->pending transition")
	}
	s.sessions.Audit(ctx, sess.ID, sessiondomain.AuditSettlementTimeout, cause.Error())
	return apperror.ErrTimeout.Wrap(cause)
}

// complete records the payment and then settles the session. The session
// only leaves settling once the payment row exists; until then it carries
// the transaction reference so a later attempt can finish the bookkeeping.
func (s *Service) complete(
	ctx context.Context,
	sess *sessiondomain.Session,
	receipt *domain.FacilitatorReceipt,
	commission, net decimal.Decimal,
	inlineCommission bool,
) (*domain.SettlementResult, error) {
	log := s.logger.WithFields(map[string]interface{}{"session_id": sess.ID, "tx": receipt.TransactionRef})
	now := s.now().UTC()

	if sess.TransactionRef != receipt.TransactionRef {
		if _, err := s.sessions.Transition(ctx, sess.ID, sessiondomain.Transition{
			From:           sessiondomain.StatusSettling,
			To:             sessiondomain.StatusSettling,
			At:             now,
			TransactionRef: receipt.TransactionRef,
		}); err != nil {
			log.Errorf("note settled tx on session: %v", err)
		}
	}

	status := domain.PaymentSettled
	if s.commission != nil && commission.IsPositive() {
		status = domain.PaymentCommissionPending
	}
	p := &domain.Payment{
		ID:               s.newID(),
		SessionID:        sess.ID,
		TransactionRef:   receipt.TransactionRef,
		Payer:            receipt.Payer,
		Amount:           sess.Amount,
		Currency:         sess.Currency,
		CommissionBps:    s.settings.CommissionBps,
		CommissionAmount: commission,
		NetAmount:        net,
		Status:           status,
		CreatedAt:        now,
		SettledAt:        now,
		UpdatedAt:        now,
	}
	if err := s.recordPayment(ctx, p); err != nil {
		log.Errorf("payment settled on chain but not recorded: %v", err)
		s.sessions.Audit(ctx, sess.ID, sessiondomain.AuditSettlementUnrecorded, "tx "+receipt.TransactionRef+": "+err.Error())
		return nil, apperror.ErrInternal.WithMessage("payment settled but could not be recorded yet").Wrap(err)
	}

	won, err := s.sessions.Transition(ctx, sess.ID, sessiondomain.Transition{
		From:           sessiondomain.StatusSettling,
		To:             sessiondomain.StatusSettled,
		At:             now,
		TransactionRef: receipt.TransactionRef,
		SettledAt:      &now,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		log.Errorf("lost settling->settled transition")
	}
	log.Infof("payment settled amount=%s %s commission=%s", sess.Amount, sess.Currency, commission)
	s.sessions.Audit(ctx, sess.ID, sessiondomain.AuditSettlementSettled, "tx "+receipt.TransactionRef)
	s.publish(ctx, domain.Event{
		Type:             domain.EventPaymentSettled,
		SessionID:        sess.ID,
		TransactionRef:   receipt.TransactionRef,
		Amount:           sess.Amount,
		Currency:         string(sess.Currency),
		CommissionAmount: commission,
		NetAmount:        net,
	})

	if sess.Confidential {
		s.recordConfidentialAmount(ctx, sess)
	}
	if status == domain.PaymentCommissionPending && inlineCommission {
		if _, err := s.attemptCommission(ctx, sess.ID); err != nil {
			log.Warnf("inline commission attempt: %v", err)
		}
	}

	stored, err := s.sessions.Refresh(ctx, sess.ID, now)
	if err != nil {
		return nil, err
	}
	if got, err := s.payments.GetBySessionID(ctx, sess.ID); err == nil && got != nil {
		p = got
	}
	return resultFrom(stored, p), nil
}

// recordPayment writes p, retrying with backoff. A payment already on file
// from an earlier attempt counts as written.
func (s *Service) recordPayment(ctx context.Context, p *domain.Payment) error {
	wait := s.settings.RecordBackoff
	for attempt := 1; ; attempt++ {
		err := s.payments.Create(ctx, p)
		if err == nil || errors.Is(err, domain.ErrPaymentExists) {
			return nil
		}
		if attempt >= s.settings.RecordAttempts {
			return err
		}
		s.logger.WithField("session_id", p.SessionID).Warnf("record payment attempt %d: %v", attempt, err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (s *Service) recordConfidentialAmount(ctx context.Context, sess *sessiondomain.Session) {
	if s.encryptor == nil {
		s.sessions.Audit(ctx, sess.ID, sessiondomain.AuditConfidentialAmountFail, "encryption service not configured")
		return
	}
	ct, err := s.encryptor.Encrypt(ctx, sess.Amount.String())
	if err == nil {
		err = s.payments.SetEncryptedAmount(ctx, sess.ID, ct)
	}
	if err != nil {
		s.logger.WithField("session_id", sess.ID).Errorf("confidential amount: %v", err)
		s.sessions.Audit(ctx, sess.ID, sessiondomain.AuditConfidentialAmountFail, err.Error())
		return
	}
	s.sessions.Audit(ctx, sess.ID, sessiondomain.AuditConfidentialAmountSet, "")
}

// lock maps a lock wait that outlived ctx to a timeout.
func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, key)
	if err == nil {
		return unlock, nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, apperror.ErrTimeout.WithMessage("another request holds this session").Wrap(err)
	}
	s.logger.Errorf("acquire lock %s: %v", key, err)
	return nil, apperror.ErrInternal.Wrap(err)
}

func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if s.publisher == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now().UTC()
	}
	if err := s.publisher.Publish(ctx, string(ev.Type), ev); err != nil {
		s.logger.WithField("session_id", ev.SessionID).Errorf("publish %s: %v", ev.Type, err)
	}
}

// resultFrom builds the settlement answer from stored state.
func resultFrom(sess *sessiondomain.Session, p *domain.Payment) *domain.SettlementResult {
	res := &domain.SettlementResult{
		SessionID:      sess.ID,
		Status:         sess.Status.Public(),
		TransactionRef: sess.TransactionRef,
		Amount:         sess.Amount,
		Currency:       sess.Currency,
		NetAmount:      sess.Amount,
	}
	if sess.SettledAt != nil {
		res.SettledAt = *sess.SettledAt
	}
	if p != nil {
		res.CommissionBps = p.CommissionBps
		res.CommissionAmount = p.CommissionAmount
		res.NetAmount = p.NetAmount
		res.PaymentStatus = p.Status
		if res.SettledAt.IsZero() {
			res.SettledAt = p.SettledAt
		}
	}
	return res
}
