package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/session/domain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

var _ domain.SessionUsecase = (*Service)(nil)

const nonceBytes = 32

type Settings struct {
	SessionTTL      time.Duration
	FacilitatorURL  string
	MerchantAddress string
}

type Service struct {
	sessions domain.SessionRepository
	quotes   domain.QuoteAdapter
	logger   *logger.Logger
	settings Settings
	now      func() time.Time
	newID    func() string
	newNonce func() (string, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }
func WithNonceGenerator(f func() (string, error)) Option { return func(s *Service) { s.newNonce = f } }

func NewService(sessions domain.SessionRepository, quotes domain.QuoteAdapter, logg *logger.Logger, settings Settings, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		quotes:   quotes,
		logger:   logg,
		settings: settings,
		now:      time.Now,
		newID:    func() string { return "session_" + uuid.New().String() },
		newNonce: randomNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func randomNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random nonce: %w", err)
	}
	return hexutil.Encode(b), nil
}

func (s *Service) OpenSession(ctx context.Context, req domain.OpenSessionRequest) (*domain.Session, error) {
	if strings.TrimSpace(req.QuoteID) == "" {
		return nil, apperror.ErrInvalidInput.WithMessage("quoteId is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount
	}
	asset, ok := quotedomain.LookupAsset(req.Currency)
	if !ok {
		return nil, apperror.ErrUnsupportedCurrency.WithMessage("currency " + req.Currency + " is not supported")
	}
	if utf8.RuneCountInString(req.Memo) > domain.MaxMemoLength {
		return nil, apperror.ErrInvalidInput.WithMessage(fmt.Sprintf("memo exceeds %d characters", domain.MaxMemoLength))
	}

	q, err := s.quotes.GetQuote(ctx, req.QuoteID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if q.ExpiredAt(now) {
		return nil, apperror.ErrQuoteExpired
	}
	if q.Currency != asset.Symbol || !q.InputAmount.Equal(req.Amount) {
		return nil, apperror.ErrQuoteMismatch
	}

	nonce, err := s.newNonce()
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	id := s.newID()

	if err := s.quotes.ClaimQuote(ctx, q.ID, id); err != nil {
		return nil, err
	}
	snapshot := *q
	snapshot.ClaimedBy = id

	sess := &domain.Session{
		ID:              id,
		Quote:           snapshot,
		FacilitatorURL:  s.settings.FacilitatorURL,
		MerchantAddress: s.settings.MerchantAddress,
		Nonce:           nonce,
		Amount:          req.Amount,
		Currency:        asset.Symbol,
		Memo:            req.Memo,
		Confidential:    req.Confidential,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(s.settings.SessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			s.logger.Errorf("session id collision on %s", id)
		}
		s.logger.Errorf("save session %s for quote %s failed: %v", id, q.ID, err)
		s.releaseClaim(context.WithoutCancel(ctx), q.ID, id)
		return nil, apperror.ErrInternal.Wrap(err)
	}
	s.Audit(ctx, id, domain.AuditSessionOpened, "quote "+q.ID)
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	if sess == nil {
		return nil, apperror.ErrSessionNotFound
	}
	return sess, nil
}

// releaseClaim frees the quote after a failed save, unless the save did land
// and the session is in fact stored.
func (s *Service) releaseClaim(ctx context.Context, quoteID, sessionID string) {
	log := s.logger.WithField("quote_id", quoteID)
	stored, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		log.Errorf("quote stays claimed by %s, cannot check the session: %v", sessionID, err)
		return
	}
	if stored != nil && stored.Quote.ID == quoteID {
		log.Warnf("session %s was stored despite the save error, quote stays claimed", sessionID)
		return
	}
	if err := s.quotes.ReleaseQuote(ctx, quoteID, sessionID); err != nil {
		log.Errorf("quote stays claimed by %s: %v", sessionID, err)
	}
}

// Refresh returns the current session, expiring it first when it is still
// pending past its deadline. Repeated calls are no-ops once expired.
func (s *Service) Refresh(ctx context.Context, id string, now time.Time) (*domain.Session, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != domain.StatusPending || !sess.ExpiredAt(now) {
		return sess, nil
	}

	won, err := s.Transition(ctx, id, domain.Transition{
		From: domain.StatusPending,
		To:   domain.StatusExpired,
		At:   now,
	})
	if err != nil {
		return nil, err
	}
	if won {
		s.Audit(ctx, id, domain.AuditSessionExpired, "")
	}
	return s.GetSession(ctx, id)
}

func (s *Service) Transition(ctx context.Context, id string, t domain.Transition) (bool, error) {
	if t.At.IsZero() {
		t.At = s.now().UTC()
	}
	ok, err := s.sessions.Transition(ctx, id, t)
	if err != nil {
		s.logger.Errorf("session %s transition %s->%s failed: %v", id, t.From, t.To, err)
		return false, apperror.ErrInternal.Wrap(err)
	}
	return ok, nil
}

// Audit records an entry. Failures are logged and never surface to callers.
func (s *Service) Audit(ctx context.Context, sessionID string, event domain.AuditEvent, detail string) {
	err := s.sessions.AppendAudit(ctx, domain.AuditEntry{
		SessionID: sessionID,
		Event:     event,
		Detail:    detail,
		At:        s.now().UTC(),
	})
	if err != nil {
		s.logger.Errorf("append audit %s for %s failed: %v", event, sessionID, err)
	}
}

func (s *Service) AuditLog(ctx context.Context, sessionID string) ([]domain.AuditEntry, error) {
	entries, err := s.sessions.ListAudit(ctx, sessionID)
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	return entries, nil
}
