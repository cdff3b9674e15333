package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/MMN3003/payagent/src/quote/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ domain.QuoteUsecase = (*Service)(nil)

type Service struct {
	quotes   domain.QuoteRepository
	rates    domain.RateProvider
	logger   *logger.Logger
	quoteTTL time.Duration
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

func NewService(q domain.QuoteRepository, rates domain.RateProvider, logg *logger.Logger, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		quotes:   q,
		rates:    rates,
		logger:   logg,
		quoteTTL: ttl,
		now:      time.Now,
		newID:    func() string { return "quote_" + uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateQuote(ctx context.Context, inputAmount decimal.Decimal, currency string) (*domain.Quote, error) {
	if !inputAmount.IsPositive() {
		return nil, apperror.ErrInvalidAmount
	}
	asset, ok := domain.LookupAsset(currency)
	if !ok {
		return nil, apperror.ErrUnsupportedCurrency.WithMessage("currency " + currency + " is not supported")
	}
	if !asset.Representable(inputAmount) {
		return nil, apperror.ErrInvalidAmount.WithMessage("amount has more precision than the asset allows")
	}

	rate, err := s.rates.Rate(ctx, asset.Symbol)
	if err != nil {
		s.logger.Errorf("rate lookup for %s failed: %v", asset.Symbol, err)
		return nil, apperror.ErrInternal.Wrap(err)
	}

	now := s.now().UTC()
	q := &domain.Quote{
		ID:              s.newID(),
		Currency:        asset.Symbol,
		InputAmount:     inputAmount,
		QuotedAmountUSD: inputAmount.Mul(rate.Value),
		Rate:            rate.Value,
		RateSource:      rate.Source,
		FetchedAt:       now,
		QuoteExpiresAt:  now.Add(s.quoteTTL),
	}
	if err := s.quotes.Save(ctx, q); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			s.logger.Errorf("quote id collision on %s", q.ID)
		}
		return nil, apperror.ErrInternal.Wrap(err)
	}
	return q, nil
}

func (s *Service) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	q, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrInternal.Wrap(err)
	}
	if q == nil {
		return nil, apperror.ErrQuoteNotFound
	}
	return q, nil
}

// ClaimQuote atomically marks the quote as bound to sessionID. A quote can
// be claimed once over its whole lifetime.
func (s *Service) ClaimQuote(ctx context.Context, id, sessionID string) error {
	ok, err := s.quotes.Claim(ctx, id, sessionID)
	if err != nil {
		return apperror.ErrInternal.Wrap(err)
	}
	if ok {
		return nil
	}
	if _, err := s.GetQuote(ctx, id); err != nil {
		return err
	}
	return apperror.ErrQuoteAlreadyConsumed
}

// ReleaseQuote hands back a claim whose session was never stored. It is a
// no-op once the quote is bound to anything else.
func (s *Service) ReleaseQuote(ctx context.Context, id, sessionID string) error {
	ok, err := s.quotes.Release(ctx, id, sessionID)
	if err != nil {
		return apperror.ErrInternal.Wrap(err)
	}
	if ok {
		s.logger.WithField("quote_id", id).Infof("claim by %s released", sessionID)
	}
	return nil
}
