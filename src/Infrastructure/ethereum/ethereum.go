package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABI = `[
	{
		"constant": false,
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	}
]`

// Errors
var (
	ErrMissingEnvVars    = errors.New("missing required environment variables")
	ErrConnectNetwork    = errors.New("failed to connect to network")
	ErrInvalidPrivateKey = errors.New("failed to parse private key")
	ErrParseABI          = errors.New("failed to parse ABI")
	ErrCreateTransactor  = errors.New("failed to create transactor")
	ErrContractCall      = errors.New("failed to call contract function")
	ErrSendTransaction   = errors.New("failed to send transaction")
	ErrMineTransaction   = errors.New("failed to mine transaction")
	ErrInvalidAmount     = errors.New("failed to parse amount")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrUnsupportedToken  = errors.New("unsupported token symbol")
)

// Config holds Ethereum client config
type Config struct {
	RPCURL          string
	PrivateKey      string
	ChainID         *big.Int
	SupportedTokens map[string]string // Symbol → contract address (e.g. "USDC": "0x...")
}

// TransferParams for TransferToken. Amount is in the token's minor units.
type TransferParams struct {
	RecipientAddress string
	Amount           string
	TokenSymbol      string
}

// EthereumClient signs and submits ERC20 transfers from a single wallet
type EthereumClient struct {
	client     *ethclient.Client
	wallet     common.Address
	privateKey *ecdsa.PrivateKey
	contracts  map[string]*bind.BoundContract
	config     Config
}

// NewEthereumClient initializes the client
func NewEthereumClient(ctx context.Context, config Config) (*EthereumClient, error) {
	if config.RPCURL == "" || config.PrivateKey == "" {
		return nil, fmt.Errorf("%w: RPC_URL or PRIVATE_KEY", ErrMissingEnvVars)
	}
	client, err := ethclient.DialContext(ctx, config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectNetwork, err)
	}
	key := strings.TrimPrefix(config.PrivateKey, "0x")

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	wallet := crypto.PubkeyToAddress(privateKey.PublicKey)

	if config.ChainID == nil {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: chain id: %v", ErrConnectNetwork, err)
		}
		config.ChainID = chainID
	}

	erc20Parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ERC20 ABI: %v", ErrParseABI, err)
	}

	contracts := make(map[string]*bind.BoundContract)
	for symbol, addr := range config.SupportedTokens {
		if !common.IsHexAddress(addr) {
			client.Close()
			return nil, fmt.Errorf("%w: %s contract %q", ErrInvalidAddress, symbol, addr)
		}
		contracts[strings.ToUpper(symbol)] = bind.NewBoundContract(common.HexToAddress(addr), erc20Parsed, client, client, client)
	}

	return &EthereumClient{
		client:     client,
		wallet:     wallet,
		privateKey: privateKey,
		contracts:  contracts,
		config:     config,
	}, nil
}

func (ec *EthereumClient) Close() { ec.client.Close() }

func (ec *EthereumClient) WalletAddress() common.Address { return ec.wallet }

// TokenBalance returns the wallet balance of symbol in minor units.
func (ec *EthereumClient) TokenBalance(ctx context.Context, symbol string) (*big.Int, error) {
	contract, ok := ec.contracts[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s not supported", ErrUnsupportedToken, symbol)
	}
	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", ec.wallet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractCall, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: unexpected balanceOf result", ErrContractCall)
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected balanceOf type %T", ErrContractCall, out[0])
	}
	return bal, nil
}

// TransferToken sends an ERC20 transfer and waits for it to be mined.
func (ec *EthereumClient) TransferToken(ctx context.Context, params TransferParams) (*types.Receipt, error) {
	symbol := strings.ToUpper(params.TokenSymbol)
	contract, ok := ec.contracts[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s not supported", ErrUnsupportedToken, symbol)
	}
	if !common.IsHexAddress(params.RecipientAddress) {
		return nil, fmt.Errorf("%w: recipient %q", ErrInvalidAddress, params.RecipientAddress)
	}

	amount, ok := new(big.Int).SetString(params.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, params.Amount)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(ec.privateKey, ec.config.ChainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateTransactor, err)
	}
	auth.Context = ctx

	tx, err := contract.Transact(auth, "transfer",
		common.HexToAddress(params.RecipientAddress),
		amount,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendTransaction, err)
	}

	receipt, err := bind.WaitMined(ctx, ec.client, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMineTransaction, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s reverted", ErrMineTransaction, tx.Hash().Hex())
	}
	return receipt, nil
}
