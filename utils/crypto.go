package utils

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyFromHex parses a secp256k1 key with or without the 0x prefix.
func PrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
}

// AddressFromPrivateKey derives the Ethereum address from a private key
func AddressFromPrivateKey(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// SignHash signs a 32-byte digest and returns the 0x-hex signature with V in {27,28}.
func SignHash(hash []byte, privateKey *ecdsa.PrivateKey) (string, error) {
	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign hash: %w", err)
	}
	signature[64] += 27
	return hexutil.Encode(signature), nil
}

// RecoverAddressFromSignature recovers the signer of hash. V may be 0/1 or 27/28.
func RecoverAddressFromSignature(hash []byte, signature string) (common.Address, error) {
	sigBytes, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sigBytes) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be 65 bytes, got %d", len(sigBytes))
	}
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	pubKey, err := crypto.SigToPub(hash, sigBytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// NormalizeAddress returns the EIP-55 checksummed form, or "" for invalid input.
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return ""
	}
	return common.HexToAddress(address).Hex()
}

// SignPersonalMessage signs message the way personal_sign does.
func SignPersonalMessage(message string, privateKey *ecdsa.PrivateKey) (string, error) {
	return SignHash(accounts.TextHash([]byte(message)), privateKey)
}

// VerifyPersonalMessage reports whether signature over message was made by expectedAddress.
func VerifyPersonalMessage(message, signature string, expectedAddress common.Address) (bool, error) {
	recoveredAddr, err := RecoverAddressFromSignature(accounts.TextHash([]byte(message)), signature)
	if err != nil {
		return false, err
	}
	return recoveredAddr == expectedAddress, nil
}
