package types

import (
	"fmt"
	"sort"
)

// ChainFamily classifies a network into a blockchain family.
type ChainFamily string

const (
	ChainEVM    ChainFamily = "evm"
	ChainSolana ChainFamily = "solana"
)

// Network represents a settlement network as named by x402 payment requirements.
type Network string

const (
	// EVM Networks
	NetworkBase        Network = "base"
	NetworkBaseSepolia Network = "base-sepolia" // testnet
	NetworkPolygon     Network = "polygon"
	NetworkPolygonAmoy Network = "polygon-amoy" // testnet

	// Solana Networks
	NetworkSolana       Network = "solana"
	NetworkSolanaDevnet Network = "solana-devnet" // testnet
)

// networkInfo is the static per-network table used for signing and presentation.
type networkInfo struct {
	family   ChainFamily
	chainID  int64
	explorer string
	usdc     string
	rpc      string
}

var networks = map[Network]networkInfo{
	NetworkBase: {
		family:   ChainEVM,
		chainID:  8453,
		explorer: "https://basescan.org/tx/%s",
		usdc:     "0x833589fCD6eDb6E08f4c7C32D4f71B54bdA02913",
		rpc:      "https://mainnet.base.org",
	},
	NetworkBaseSepolia: {
		family:   ChainEVM,
		chainID:  84532,
		explorer: "https://sepolia.basescan.org/tx/%s",
		usdc:     "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		rpc:      "https://sepolia.base.org",
	},
	NetworkPolygon: {
		family:   ChainEVM,
		chainID:  137,
		explorer: "https://polygonscan.com/tx/%s",
		usdc:     "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		rpc:      "https://polygon-rpc.com",
	},
	NetworkPolygonAmoy: {
		family:   ChainEVM,
		chainID:  80002,
		explorer: "https://amoy.polygonscan.com/tx/%s",
		usdc:     "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		rpc:      "https://rpc-amoy.polygon.technology",
	},
	NetworkSolana: {
		family:   ChainSolana,
		explorer: "https://solscan.io/tx/%s",
		usdc:     "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		rpc:      "https://api.mainnet-beta.solana.com",
	},
	NetworkSolanaDevnet: {
		family:   ChainSolana,
		explorer: "https://solscan.io/tx/%s?cluster=devnet",
		usdc:     "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		rpc:      "https://api.devnet.solana.com",
	},
}

// ParseNetwork validates a network name against the supported set.
func ParseNetwork(s string) (Network, error) {
	n := Network(s)
	if _, ok := networks[n]; !ok {
		return "", &X402Error{
			Code:    ErrUnsupportedNetwork,
			Message: fmt.Sprintf("unsupported network: %s", s),
		}
	}
	return n, nil
}

// SupportedNetworks lists every known network, sorted by name.
func SupportedNetworks() []Network {
	out := make([]Network, 0, len(networks))
	for n := range networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Family returns the chain family, or "" for unknown networks.
func (n Network) Family() ChainFamily {
	return networks[n].family
}

// ChainID returns the EIP-155 chain id of an EVM network, or 0.
func (n Network) ChainID() int64 {
	return networks[n].chainID
}

// ExplorerTemplate returns a fmt template taking the transaction reference.
func (n Network) ExplorerTemplate() string {
	return networks[n].explorer
}

// USDC returns the canonical USDC contract / mint address on the network.
func (n Network) USDC() string {
	return networks[n].usdc
}

// DefaultRPCURL returns a public RPC endpoint for the network.
func (n Network) DefaultRPCURL() string {
	return networks[n].rpc
}

// Helper functions for network classification
func (n Network) IsEVM() bool {
	return n.Family() == ChainEVM
}

func (n Network) IsSolana() bool {
	return n.Family() == ChainSolana
}

func (n Network) IsTestnet() bool {
	return n == NetworkBaseSepolia || n == NetworkPolygonAmoy || n == NetworkSolanaDevnet
}

func (n Network) String() string {
	return string(n)
}
