package siwe

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vitwit/x402gen/utils"
)

const (
	HeaderName   = "Authorization"
	HeaderScheme = "SIWE"
)

// SignedMessage is the EIP-4361 text together with its personal_sign signature.
type SignedMessage struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// Sign signs msg with key. The key must own msg.Address.
func Sign(msg *Message, key *ecdsa.PrivateKey) (*SignedMessage, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	signer := utils.AddressFromPrivateKey(key)
	if signer != common.HexToAddress(msg.Address) {
		return nil, fmt.Errorf("%w: key is for %s, message is for %s", ErrInvalidMessage, signer.Hex(), msg.Address)
	}

	text := msg.String()
	sig, err := utils.SignPersonalMessage(text, key)
	if err != nil {
		return nil, err
	}
	return &SignedMessage{Message: text, Signature: sig}, nil
}

// Header returns the Authorization header value: "SIWE " + base64(JSON).
func (s *SignedMessage) Header() (string, error) {
	bz, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return HeaderScheme + " " + base64.StdEncoding.EncodeToString(bz), nil
}

// ParseHeader decodes an Authorization header produced by Header.
func ParseHeader(h string) (*SignedMessage, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, HeaderScheme) {
		return nil, fmt.Errorf("%w: expected %q scheme", ErrInvalidMessage, HeaderScheme)
	}
	bz, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	var s SignedMessage
	if err := json.Unmarshal(bz, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &s, nil
}

// Verify checks the signature against the message's address and the validity
// window at now. It returns the parsed message.
func Verify(s *SignedMessage, now time.Time) (*Message, error) {
	msg, err := ParseMessage(s.Message)
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPersonalMessage(s.Message, s.Signature, common.HexToAddress(msg.Address))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	if msg.ExpirationTime != nil && !now.Before(*msg.ExpirationTime) {
		return nil, ErrExpired
	}
	if msg.NotBefore != nil && now.Before(*msg.NotBefore) {
		return nil, ErrNotYetValid
	}
	return msg, nil
}
