package commission

import (
	"context"
	"errors"
	"testing"

	"github.com/MMN3003/payagent/src/Infrastructure/ethereum"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	"github.com/MMN3003/payagent/src/settlement/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTransferer struct {
	got ethereum.TransferParams
	err error
}

func (s *stubTransferer) TransferToken(_ context.Context, params ethereum.TransferParams) (*types.Receipt, error) {
	s.got = params
	if s.err != nil {
		return nil, s.err
	}
	return &types.Receipt{TxHash: common.HexToHash("0x01")}, nil
}

func TestTransferSendsCommissionInMinorUnits(t *testing.T) {
	stub := &stubTransferer{}
	port := NewCommissionPort(stub, "0x857b06519E91e3A54538791bDbb0E22373e36b66")

	ref, err := port.Transfer(context.Background(), domain.Payment{
		Currency:         quotedomain.CurrencyUSDC,
		CommissionAmount: decimal.RequireFromString("0.625"),
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x01").Hex(), ref)
	assert.Equal(t, "625000", stub.got.Amount)
	assert.Equal(t, "USDC", stub.got.TokenSymbol)
	assert.Equal(t, "0x857b06519E91e3A54538791bDbb0E22373e36b66", stub.got.RecipientAddress)
}

func TestTransferPropagatesErrors(t *testing.T) {
	port := NewCommissionPort(&stubTransferer{err: ethereum.ErrMineTransaction}, "0x857b06519E91e3A54538791bDbb0E22373e36b66")
	_, err := port.Transfer(context.Background(), domain.Payment{Currency: quotedomain.CurrencyUSDC, CommissionAmount: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, ethereum.ErrMineTransaction))

	_, err = port.Transfer(context.Background(), domain.Payment{Currency: "EURC", CommissionAmount: decimal.NewFromInt(1)})
	assert.Error(t, err)
}
