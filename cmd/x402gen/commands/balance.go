package commands

import (
	"github.com/spf13/cobra"
	"github.com/vitwit/x402gen/clients"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/utils"
)

func newBalanceCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Show an ERC-20 balance on the configured EVM network",
		Long: `Read balanceOf, decimals and symbol for an ERC-20 token. The address defaults
to the one derived from EVM_PRIVATE_KEY and the token to TOKEN_ADDRESS, or the
network's USDC contract.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := ""
			if len(args) == 1 {
				owner = args[0]
			} else {
				if a.cfg.EVMPrivateKey == "" {
					return &generation.Error{Kind: generation.ErrInput, Message: "pass an address or set EVM_PRIVATE_KEY"}
				}
				key, err := utils.PrivateKeyFromHex(a.cfg.EVMPrivateKey)
				if err != nil {
					return &generation.Error{Kind: generation.ErrInput, Message: "invalid EVM_PRIVATE_KEY", Err: err}
				}
				owner = utils.AddressFromPrivateKey(key).Hex()
			}

			if token == "" {
				token = a.cfg.TokenAddress
			}
			if token == "" {
				token = a.cfg.EVMNetwork.USDC()
			}

			client, err := clients.NewEVMClient(cmd.Context(), a.cfg.EVMNetwork, a.cfg.EVMRPCURL)
			if err != nil {
				return err
			}
			defer client.Close()

			bal, err := client.TokenBalance(cmd.Context(), token, owner)
			if err != nil {
				return err
			}
			a.log.Info("balance read", map[string]any{"network": bal.Network, "owner": bal.Owner, "balance": bal.Formatted})
			return writeJSON(a.stdout, bal)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "ERC-20 contract address (TOKEN_ADDRESS, default: network USDC)")
	return cmd
}
