package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vitwit/x402gen/types"
)

var (
	hexPattern    = regexp.MustCompile("^[0-9a-fA-F]+$")
	base58Pattern = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")
)

// ValidateAmount checks if an amount string is a valid non-negative decimal
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return &dec, nil
}

// IsSolanaSignature reports whether ref has the shape of a Solana transaction
// signature: base58, 80 to 90 characters.
func IsSolanaSignature(ref string) bool {
	return len(ref) >= 80 && len(ref) <= 90 && isBase58String(ref)
}

// IsEVMTxHash reports whether ref is 0x followed by 64 hex characters.
func IsEVMTxHash(ref string) bool {
	return len(ref) == 66 && strings.HasPrefix(ref, "0x") && isHexString(ref[2:])
}

// ValidateAddressForNetwork validates a wallet address for the given network
func ValidateAddressForNetwork(address string, network types.Network) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	switch {
	case network.IsEVM():
		if !strings.HasPrefix(address, "0x") || len(address) != 42 || !isHexString(address[2:]) {
			return fmt.Errorf("EVM address must be 0x followed by 40 hex characters")
		}
	case network.IsSolana():
		// base58, typically 32-44 characters
		if len(address) < 32 || len(address) > 44 || !isBase58String(address) {
			return fmt.Errorf("Solana address must be 32-44 base58 characters")
		}
	default:
		return fmt.Errorf("unsupported network for address validation")
	}

	return nil
}

func isHexString(s string) bool {
	return hexPattern.MatchString(s)
}

// Base58 alphabet: 123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz
func isBase58String(s string) bool {
	return base58Pattern.MatchString(s)
}

// FormatAmountFromBigInt formats a big.Int amount to decimal string with specified decimals
func FormatAmountFromBigInt(amount *big.Int, decimals int) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
