package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/quote/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return t0 })}, opts...)
	return NewService(repository.NewMemoryQuoteRepo(), NewFixedRateProvider(), logger.Nop(), 5*time.Minute, opts...)
}

func TestCreateQuote(t *testing.T) {
	svc := newService()

	q, err := svc.CreateQuote(context.Background(), decimal.NewFromInt(100), "usdc")
	require.NoError(t, err)

	assert.Contains(t, q.ID, "quote_")
	assert.Equal(t, domain.CurrencyUSDC, q.Currency)
	assert.True(t, q.InputAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, q.QuotedAmountUSD.Equal(decimal.NewFromInt(100)))
	assert.True(t, q.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, domain.RateSourceManual, q.RateSource)
	assert.Equal(t, t0, q.FetchedAt)
	assert.Equal(t, t0.Add(5*time.Minute), q.QuoteExpiresAt)

	got, err := svc.GetQuote(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)
}

func TestCreateQuoteValidation(t *testing.T) {
	svc := newService()

	tests := []struct {
		name     string
		amount   string
		currency string
		want     *apperror.Error
	}{
		{"zero", "0", "USDC", apperror.ErrInvalidAmount},
		{"negative", "-1", "USDC", apperror.ErrInvalidAmount},
		{"too precise", "1.0000001", "USDC", apperror.ErrInvalidAmount},
		{"unknown currency", "10", "DOGE", apperror.ErrUnsupportedCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateQuote(context.Background(), decimal.RequireFromString(tt.amount), tt.currency)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
		})
	}
}

func TestGetQuoteNotFound(t *testing.T) {
	_, err := newService().GetQuote(context.Background(), "quote_missing")
	assert.ErrorIs(t, err, apperror.ErrQuoteNotFound)
}

func TestCreateQuoteIDCollisionIsInternal(t *testing.T) {
	svc := newService(WithIDGenerator(func() string { return "quote_fixed" }))

	_, err := svc.CreateQuote(context.Background(), decimal.NewFromInt(1), "USDC")
	require.NoError(t, err)

	_, err = svc.CreateQuote(context.Background(), decimal.NewFromInt(1), "USDC")
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.True(t, errors.Is(err, domain.ErrDuplicateID))
}

func TestClaimQuoteIsSingleUse(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	q, err := svc.CreateQuote(ctx, decimal.NewFromInt(5), "USDC")
	require.NoError(t, err)

	require.NoError(t, svc.ClaimQuote(ctx, q.ID, "session_a"))
	assert.ErrorIs(t, svc.ClaimQuote(ctx, q.ID, "session_b"), apperror.ErrQuoteAlreadyConsumed)
	assert.ErrorIs(t, svc.ClaimQuote(ctx, "quote_missing", "session_c"), apperror.ErrQuoteNotFound)
}
