package clients

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	x402types "github.com/vitwit/x402gen/types"
)

// SolanaClient provides the Solana RPC reads needed to build payments
type SolanaClient struct {
	network x402types.Network
	rpcURL  string
	client  *rpc.Client
}

var _ Client = (*SolanaClient)(nil)

func NewSolanaClient(network x402types.Network, rpcURL string) (*SolanaClient, error) {
	if !network.IsSolana() {
		return nil, &x402types.X402Error{
			Code:    x402types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not a Solana network", network),
		}
	}

	return &SolanaClient{
		network: network,
		rpcURL:  rpcURL,
		client:  rpc.New(rpcURL),
	}, nil
}

// LatestBlockhash returns a finalized blockhash to anchor a new transaction.
func (s *SolanaClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: empty result")
	}
	return out.Value.Blockhash, nil
}

// MintDecimals returns the decimals of an SPL token mint.
func (s *SolanaClient) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	out, err := s.client.GetTokenSupply(ctx, mint, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("getTokenSupply %s: %w", mint, err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("getTokenSupply %s: empty result", mint)
	}
	return out.Value.Decimals, nil
}

func (s *SolanaClient) GetNetwork() x402types.Network { return s.network }

func (s *SolanaClient) Close() {}
