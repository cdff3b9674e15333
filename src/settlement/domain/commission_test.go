package domain

import (
	"math/rand"
	"testing"

	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usdc, _ = quotedomain.LookupAsset("USDC")

func TestSplitCommissionExamples(t *testing.T) {
	tests := []struct {
		amount     string
		bps        int
		commission string
		net        string
	}{
		{"100", 500, "5", "95"},
		{"1", 0, "0", "1"},
		{"1", 10000, "1", "0"},
		{"0.000001", 500, "0", "0.000001"},
		{"0.000019", 500, "0", "0.000019"},
		{"0.00002", 500, "0.000001", "0.000019"},
		{"33.333333", 333, "1.11", "32.223333"},
	}
	for _, tt := range tests {
		c, n, err := SplitCommission(decimal.RequireFromString(tt.amount), tt.bps, usdc)
		require.NoError(t, err)
		assert.True(t, c.Equal(decimal.RequireFromString(tt.commission)), "%s@%d commission=%s", tt.amount, tt.bps, c)
		assert.True(t, n.Equal(decimal.RequireFromString(tt.net)), "%s@%d net=%s", tt.amount, tt.bps, n)
	}
}

func TestSplitCommissionNeverLeaks(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		minor := r.Int63n(1_000_000_000_000) + 1
		amount := decimal.New(minor, -6)
		bps := r.Intn(MaxBps + 1)

		c, n, err := SplitCommission(amount, bps, usdc)
		require.NoError(t, err)
		require.True(t, c.Add(n).Equal(amount), "amount=%s bps=%d", amount, bps)
		require.False(t, c.IsNegative())
		require.False(t, n.IsNegative())
	}
}

func TestSplitCommissionRejectsBadInput(t *testing.T) {
	_, _, err := SplitCommission(decimal.NewFromInt(1), 10001, usdc)
	assert.Error(t, err)
	_, _, err = SplitCommission(decimal.NewFromInt(1), -1, usdc)
	assert.Error(t, err)
	_, _, err = SplitCommission(decimal.RequireFromString("0.0000001"), 500, usdc)
	assert.Error(t, err)
}
