package commission

import (
	"context"
	"fmt"

	"github.com/MMN3003/payagent/src/Infrastructure/ethereum"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/ethereum/go-ethereum/core/types"
)

var _ domain.CommissionTransfer = (*CommissionPort)(nil)

// TokenTransferer is the part of the ethereum client used for the leg.
type TokenTransferer interface {
	TransferToken(ctx context.Context, params ethereum.TransferParams) (*types.Receipt, error)
}

// init commission port
func NewCommissionPort(client TokenTransferer, commissionAddress string) *CommissionPort {
	return &CommissionPort{client: client, commissionAddress: commissionAddress}
}

// CommissionPort pays the platform commission out of the treasury wallet.
type CommissionPort struct {
	client            TokenTransferer
	commissionAddress string
}

func (c *CommissionPort) Transfer(ctx context.Context, p domain.Payment) (string, error) {
	asset, ok := quotedomain.LookupAsset(string(p.Currency))
	if !ok {
		return "", fmt.Errorf("unsupported currency %s", p.Currency)
	}
	receipt, err := c.client.TransferToken(ctx, ethereum.TransferParams{
		RecipientAddress: c.commissionAddress,
		Amount:           asset.ToMinor(p.CommissionAmount).String(),
		TokenSymbol:      string(asset.Symbol),
	})
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}
