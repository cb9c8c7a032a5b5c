package clients

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"decimals","type":"function","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"name":"symbol","type":"function","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

type ERC20 interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
	Symbol(ctx context.Context) (string, error)
}

type erc20Wrapper struct {
	token  common.Address
	caller ethereum.ContractCaller
}

func newERC20(token string, caller ethereum.ContractCaller) (*erc20Wrapper, error) {
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token address %q", token)
	}
	return &erc20Wrapper{token: common.HexToAddress(token), caller: caller}, nil
}

func (e *erc20Wrapper) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsedERC20.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	out, err := e.caller.CallContract(ctx, ethereum.CallMsg{To: &e.token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	values, err := parsedERC20.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s: expected 1 return value, got %d", method, len(values))
	}
	return values, nil
}

func (e *erc20Wrapper) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	values, err := e.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(values[0], new(big.Int)).(*big.Int), nil
}

func (e *erc20Wrapper) Decimals(ctx context.Context) (uint8, error) {
	values, err := e.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(values[0], new(uint8)).(*uint8), nil
}

func (e *erc20Wrapper) Symbol(ctx context.Context) (string, error) {
	values, err := e.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(values[0], new(string)).(*string), nil
}
