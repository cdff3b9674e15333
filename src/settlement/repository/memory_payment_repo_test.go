package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, r *MemoryPaymentRepo, n int, status domain.PaymentStatus, attempts int) {
	t.Helper()
	for i := 0; i < n; i++ {
		sid := fmt.Sprintf("session_%s_%02d", status, i)
		require.NoError(t, r.Create(context.Background(), &domain.Payment{
			ID:                 "pay_" + sid,
			SessionID:          sid,
			Amount:             decimal.NewFromInt(10),
			Status:             status,
			CommissionAttempts: attempts,
			SettledAt:          t0.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func TestCreateIsOncePerSession(t *testing.T) {
	r := NewMemoryPaymentRepo()
	p := &domain.Payment{ID: "pay_1", SessionID: "session_1"}
	require.NoError(t, r.Create(context.Background(), p))
	assert.ErrorIs(t, r.Create(context.Background(), &domain.Payment{ID: "pay_2", SessionID: "session_1"}), domain.ErrPaymentExists)

	got, err := r.GetBySessionID(context.Background(), "session_1")
	require.NoError(t, err)
	assert.Equal(t, "pay_1", got.ID)

	missing, err := r.GetBySessionID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListPagesNewestFirst(t *testing.T) {
	r := NewMemoryPaymentRepo()
	seed(t, r, 5, domain.PaymentSettled, 0)
	seed(t, r, 3, domain.PaymentCommissionFailed, 1)

	items, total, err := r.List(context.Background(), domain.ListFilter{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 8, total)
	require.Len(t, items, 3)
	assert.True(t, !items[0].SettledAt.Before(items[1].SettledAt))

	items, total, err = r.List(context.Background(), domain.ListFilter{Status: domain.PaymentSettled, Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, items, 2)

	items, _, err = r.List(context.Background(), domain.ListFilter{Page: 9, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListRetryableHonoursAttemptCap(t *testing.T) {
	r := NewMemoryPaymentRepo()
	seed(t, r, 2, domain.PaymentCommissionPending, 0)
	seed(t, r, 2, domain.PaymentCommissionFailed, 5)
	seed(t, r, 2, domain.PaymentSettled, 1)

	out, err := r.ListRetryable(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.Equal(t, domain.PaymentCommissionPending, p.Status)
	}

	out, err = r.ListRetryable(context.Background(), 6, 3)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}
