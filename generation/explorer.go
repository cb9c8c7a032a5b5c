package generation

import (
	"fmt"

	"github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/utils"
)

// ExplorerURL links a payment transaction to a block explorer. A reference that
// looks like a Solana signature is sent to the Solana explorer even when the
// declared network is EVM.
func ExplorerURL(txRef string, network types.Network) string {
	if txRef == "" {
		return ""
	}

	if network.IsSolana() {
		return fmt.Sprintf(network.ExplorerTemplate(), txRef)
	}
	if utils.IsSolanaSignature(txRef) {
		solanaNet := types.NetworkSolana
		if network.IsTestnet() {
			solanaNet = types.NetworkSolanaDevnet
		}
		return fmt.Sprintf(solanaNet.ExplorerTemplate(), txRef)
	}
	if !network.IsEVM() {
		network = types.NetworkBase
	}
	return fmt.Sprintf(network.ExplorerTemplate(), txRef)
}
