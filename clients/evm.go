package clients

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	x402types "github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/utils"
)

var _ Client = (*EVMClient)(nil)

// EVMClient reads ERC-20 state over JSON-RPC.
type EVMClient struct {
	network x402types.Network
	caller  ethereum.ContractCaller
	client  *ethclient.Client
}

// TokenBalance is an ERC-20 balance with its display form.
type TokenBalance struct {
	Network   string   `json:"network"`
	Token     string   `json:"token"`
	Owner     string   `json:"owner"`
	Symbol    string   `json:"symbol"`
	Decimals  uint8    `json:"decimals"`
	Raw       *big.Int `json:"raw"`
	Formatted string   `json:"balance"`
}

func NewEVMClient(ctx context.Context, network x402types.Network, rpcURL string) (*EVMClient, error) {
	if !network.IsEVM() {
		return nil, &x402types.X402Error{
			Code:    x402types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not an EVM network", network),
		}
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM RPC: %w", err)
	}

	return &EVMClient{
		network: network,
		caller:  client,
		client:  client,
	}, nil
}

// NewEVMClientWithCaller builds a client over an existing contract caller.
func NewEVMClientWithCaller(network x402types.Network, caller ethereum.ContractCaller) *EVMClient {
	return &EVMClient{network: network, caller: caller}
}

// Close implements Client.
func (e *EVMClient) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// GetNetwork implements Client.
func (e *EVMClient) GetNetwork() x402types.Network {
	return e.network
}

func (e *EVMClient) ERC20(token string) (ERC20, error) {
	return newERC20(token, e.caller)
}

// TokenBalance reads balanceOf, decimals and symbol for owner.
func (e *EVMClient) TokenBalance(ctx context.Context, token, owner string) (*TokenBalance, error) {
	if err := utils.ValidateAddressForNetwork(owner, e.network); err != nil {
		return nil, err
	}

	erc20, err := e.ERC20(token)
	if err != nil {
		return nil, err
	}

	bal, err := erc20.BalanceOf(ctx, common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}

	decimals, err := erc20.Decimals(ctx)
	if err != nil {
		return nil, err
	}

	// symbol() is optional in ERC-20
	symbol, err := erc20.Symbol(ctx)
	if err != nil {
		symbol = ""
	}

	return &TokenBalance{
		Network:   e.network.String(),
		Token:     common.HexToAddress(token).Hex(),
		Owner:     common.HexToAddress(owner).Hex(),
		Symbol:    symbol,
		Decimals:  decimals,
		Raw:       bal,
		Formatted: utils.FormatAmountFromBigInt(bal, int(decimals)),
	}, nil
}
