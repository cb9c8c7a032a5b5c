// Package x402gen pays for AI media generation over the x402 protocol and
// follows the resulting jobs to completion. The CLI lives in cmd/x402gen.
package x402gen

import (
	"github.com/vitwit/x402gen/types"
)

// Version information
const (
	Version         = "1.0.0"
	ProtocolVersion = int(types.X402Version1)
)

// GetVersion returns version information
func GetVersion() map[string]interface{} {
	networks := make([]string, 0)
	for _, n := range types.SupportedNetworks() {
		networks = append(networks, n.String())
	}
	return map[string]interface{}{
		"version":            Version,
		"protocol_version":   ProtocolVersion,
		"supported_networks": networks,
		"supported_schemes":  []string{string(types.SchemeExact)},
		"supported_standards": []string{
			"erc20-eip3009", "spl",
		},
	}
}
