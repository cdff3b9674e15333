package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	quoterepo "github.com/MMN3003/payagent/src/quote/repository"
	quoteusecase "github.com/MMN3003/payagent/src/quote/usecase"
	quoteadapter "github.com/MMN3003/payagent/src/session/adapter/quote"
	"github.com/MMN3003/payagent/src/session/domain"
	"github.com/MMN3003/payagent/src/session/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const merchant = "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"

type fixture struct {
	quotes   *quoteusecase.Service
	sessions *Service
	repo     *repository.MemorySessionRepo
	now      time.Time
	mu       sync.Mutex
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.quotes = quoteusecase.NewService(quoterepo.NewMemoryQuoteRepo(), quoteusecase.NewFixedRateProvider(), logger.Nop(), 5*time.Minute,
		quoteusecase.WithClock(f.clock))
	f.repo = repository.NewMemorySessionRepo()
	f.sessions = NewService(f.repo, quoteadapter.NewQuotePort(f.quotes), logger.Nop(), Settings{
		SessionTTL:      5 * time.Minute,
		FacilitatorURL:  "https://facilitator.payai.network",
		MerchantAddress: merchant,
	}, WithClock(f.clock))
	return f
}

func (f *fixture) quote(t *testing.T, amount int64) string {
	t.Helper()
	q, err := f.quotes.CreateQuote(context.Background(), decimal.NewFromInt(amount), "USDC")
	require.NoError(t, err)
	return q.ID
}

func TestOpenSession(t *testing.T) {
	f := newFixture(t)
	quoteID := f.quote(t, 100)
	f.advance(10 * time.Second)

	sess, err := f.sessions.OpenSession(context.Background(), domain.OpenSessionRequest{
		QuoteID:  quoteID,
		Amount:   decimal.NewFromInt(100),
		Currency: "USDC",
		Memo:     "order #42",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sess.ID, "session_"))
	assert.True(t, strings.HasPrefix(sess.Nonce, "0x"))
	assert.Len(t, sess.Nonce, 2+64)
	assert.Equal(t, domain.StatusPending, sess.Status)
	assert.Equal(t, quoteID, sess.Quote.ID)
	assert.Equal(t, f.clock().Add(5*time.Minute), sess.ExpiresAt)

	view := sess.View()
	assert.Equal(t, sess.ID, view.SessionID)
	assert.Equal(t, merchant, view.MerchantAddress)
	assert.Equal(t, "https://facilitator.payai.network", view.FacilitatorURL)

	log, err := f.sessions.AuditLog(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, domain.AuditSessionOpened, log[0].Event)
}

func TestOpenSessionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quoteID := f.quote(t, 100)

	tests := []struct {
		name string
		req  domain.OpenSessionRequest
		want *apperror.Error
	}{
		{"missing quote id", domain.OpenSessionRequest{Amount: decimal.NewFromInt(100), Currency: "USDC"}, apperror.ErrInvalidInput},
		{"zero amount", domain.OpenSessionRequest{QuoteID: quoteID, Currency: "USDC"}, apperror.ErrInvalidAmount},
		{"bad currency", domain.OpenSessionRequest{QuoteID: quoteID, Amount: decimal.NewFromInt(100), Currency: "BTC"}, apperror.ErrUnsupportedCurrency},
		{"long memo", domain.OpenSessionRequest{QuoteID: quoteID, Amount: decimal.NewFromInt(100), Currency: "USDC", Memo: strings.Repeat("m", 121)}, apperror.ErrInvalidInput},
		{"unknown quote", domain.OpenSessionRequest{QuoteID: "quote_nope", Amount: decimal.NewFromInt(100), Currency: "USDC"}, apperror.ErrQuoteNotFound},
		{"amount mismatch", domain.OpenSessionRequest{QuoteID: quoteID, Amount: decimal.NewFromInt(99), Currency: "USDC"}, apperror.ErrQuoteMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sessions.OpenSession(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// failed validations must not have consumed the quote
	_, err := f.sessions.OpenSession(ctx, domain.OpenSessionRequest{QuoteID: quoteID, Amount: decimal.NewFromInt(100), Currency: "USDC"})
	assert.NoError(t, err)
}

func TestOpenSessionQuoteExpiredAtBoundary(t *testing.T) {
	f := newFixture(t)
	quoteID := f.quote(t, 100)
	f.advance(5 * time.Minute)

	_, err := f.sessions.OpenSession(context.Background(), domain.OpenSessionRequest{
		QuoteID: quoteID, Amount: decimal.NewFromInt(100), Currency: "USDC",
	})
	assert.ErrorIs(t, err, apperror.ErrQuoteExpired)
}

func TestOpenSessionQuoteIsSingleUse(t *testing.T) {
	f := newFixture(t)
	quoteID := f.quote(t, 100)
	req := domain.OpenSessionRequest{QuoteID: quoteID, Amount: decimal.NewFromInt(100), Currency: "USDC"}

	var ok, consumed int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sessions.OpenSession(context.Background(), req)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case apperror.KindOf(err) == apperror.KindAlreadyConsumed:
				atomic.AddInt32(&consumed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(15), consumed)
}

// brokenSaves fails every Save; landed controls whether the row is written
// before the error comes back.
type brokenSaves struct {
	*repository.MemorySessionRepo
	landed bool
}

func (b *brokenSaves) Save(ctx context.Context, s *domain.Session) error {
	if b.landed {
		_ = b.MemorySessionRepo.Save(ctx, s)
	}
	return errors.New("connection reset by peer")
}

func TestOpenSessionReleasesQuoteWhenSaveFails(t *testing.T) {
	f := newFixture(t)
	quoteID := f.quote(t, 100)
	req := domain.OpenSessionRequest{QuoteID: quoteID, Amount: decimal.NewFromInt(100), Currency: "USDC"}

	broken := NewService(&brokenSaves{MemorySessionRepo: repository.NewMemorySessionRepo()}, quoteadapter.NewQuotePort(f.quotes), logger.Nop(), Settings{
		SessionTTL:      5 * time.Minute,
		FacilitatorURL:  "https://facilitator.payai.network",
		MerchantAddress: merchant,
	}, WithClock(f.clock))
	_, err := broken.OpenSession(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))

	q, err := f.quotes.GetQuote(context.Background(), quoteID)
	require.NoError(t, err)
	assert.False(t, q.Claimed())

	sess, err := f.sessions.OpenSession(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, quoteID, sess.Quote.ID)
}

func TestOpenSessionKeepsClaimWhenSaveLanded(t *testing.T) {
	f := newFixture(t)
	quoteID := f.quote(t, 100)
	req := domain.OpenSessionRequest{QuoteID: quoteID, Amount: decimal.NewFromInt(100), Currency: "USDC"}

	broken := NewService(&brokenSaves{MemorySessionRepo: repository.NewMemorySessionRepo(), landed: true}, quoteadapter.NewQuotePort(f.quotes), logger.Nop(), Settings{
		SessionTTL:      5 * time.Minute,
		FacilitatorURL:  "https://facilitator.payai.network",
		MerchantAddress: merchant,
	}, WithClock(f.clock))
	_, err := broken.OpenSession(context.Background(), req)
	require.Error(t, err)

	_, err = f.sessions.OpenSession(context.Background(), req)
	assert.Equal(t, apperror.KindAlreadyConsumed, apperror.KindOf(err))
}

func TestRefreshExpiresPendingSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.sessions.OpenSession(ctx, domain.OpenSessionRequest{
		QuoteID: f.quote(t, 100), Amount: decimal.NewFromInt(100), Currency: "USDC",
	})
	require.NoError(t, err)

	got, err := f.sessions.Refresh(ctx, sess.ID, f.clock().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	got, err = f.sessions.Refresh(ctx, sess.ID, sess.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)

	got, err = f.sessions.Refresh(ctx, sess.ID, sess.ExpiresAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)

	log, _ := f.sessions.AuditLog(ctx, sess.ID)
	expired := 0
	for _, e := range log {
		if e.Event == domain.AuditSessionExpired {
			expired++
		}
	}
	assert.Equal(t, 1, expired)
}

func TestRefreshLeavesTerminalSessionsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.sessions.OpenSession(ctx, domain.OpenSessionRequest{
		QuoteID: f.quote(t, 100), Amount: decimal.NewFromInt(100), Currency: "USDC",
	})
	require.NoError(t, err)

	settledAt := f.clock()
	won, err := f.sessions.Transition(ctx, sess.ID, domain.Transition{
		From: domain.StatusPending, To: domain.StatusSettled, TransactionRef: "0xabc", SettledAt: &settledAt,
	})
	require.NoError(t, err)
	require.True(t, won)

	got, err := f.sessions.Refresh(ctx, sess.ID, sess.ExpiresAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSettled, got.Status)
	assert.Equal(t, "0xabc", got.TransactionRef)

	_, err = f.sessions.Refresh(ctx, "session_missing", f.clock())
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}
