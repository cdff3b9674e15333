package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MMN3003/payagent/src/quote/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQuoteRepoConcurrentClaim(t *testing.T) {
	repo := NewMemoryQuoteRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Quote{ID: "quote_1"}))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.Claim(ctx, "quote_1", fmt.Sprintf("session_%d", i))
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	q, err := repo.GetByID(ctx, "quote_1")
	require.NoError(t, err)
	assert.True(t, q.Claimed())
}

func TestMemoryQuoteRepoRejectsDuplicateID(t *testing.T) {
	repo := NewMemoryQuoteRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Quote{ID: "quote_1"}))
	assert.ErrorIs(t, repo.Save(ctx, &domain.Quote{ID: "quote_1"}), domain.ErrDuplicateID)
}

func TestMemoryQuoteRepoReturnsCopies(t *testing.T) {
	repo := NewMemoryQuoteRepo()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Quote{ID: "quote_1"}))

	q, _ := repo.GetByID(ctx, "quote_1")
	q.ClaimedBy = "tampered"

	again, _ := repo.GetByID(ctx, "quote_1")
	assert.False(t, again.Claimed())

	missing, err := repo.GetByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
