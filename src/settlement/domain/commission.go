package domain

import (
	"fmt"
	"math/big"

	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/shopspring/decimal"
)

const MaxBps = 10000

var bpsDenominator = big.NewInt(MaxBps)

// SplitCommission computes floor(amount*bps/10000) in the asset's integer
// minor units, so commission+net reconstructs amount exactly.
func SplitCommission(amount decimal.Decimal, bps int, asset quotedomain.Asset) (commission, net decimal.Decimal, err error) {
	if bps < 0 || bps > MaxBps {
		return decimal.Zero, decimal.Zero, fmt.Errorf("commission bps %d out of range", bps)
	}
	if amount.IsNegative() || !asset.Representable(amount) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("amount %s not representable in %s", amount, asset.Symbol)
	}

	minor := asset.ToMinor(amount)
	c := new(big.Int).Mul(minor, big.NewInt(int64(bps)))
	c.Quo(c, bpsDenominator)
	n := new(big.Int).Sub(minor, c)

	return asset.FromMinor(c), asset.FromMinor(n), nil
}
