package payment

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/utils"
)

// validAfterSkew backdates validAfter so that facilitator clock drift does not
// reject a fresh authorization.
const validAfterSkew = 600

var transferWithAuthorizationTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TransferWithAuthorization": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

var _ Payer = (*EVMPayer)(nil)

// EVMPayer pays `exact` requirements on EVM networks with an EIP-3009
// TransferWithAuthorization signature. Nothing is broadcast: the facilitator
// submits the authorization on chain.
type EVMPayer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	network types.Network

	now   func() time.Time
	nonce func() ([32]byte, error)
}

func NewEVMPayer(hexKey string, network types.Network) (*EVMPayer, error) {
	if !network.IsEVM() {
		return nil, &types.X402Error{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("network %s is not an EVM network", network),
		}
	}

	key, err := utils.PrivateKeyFromHex(hexKey)
	if err != nil {
		return nil, &types.X402Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("invalid EVM private key: %v", err),
		}
	}

	return &EVMPayer{
		key:     key,
		address: utils.AddressFromPrivateKey(key),
		network: network,
		now:     time.Now,
		nonce:   randomNonce,
	}, nil
}

func randomNonce() ([32]byte, error) {
	var n [32]byte
	_, err := rand.Read(n[:])
	return n, err
}

func (p *EVMPayer) Network() types.Network { return p.network }

func (p *EVMPayer) Address() string { return p.address.Hex() }

// CreatePaymentHeader implements Payer.
func (p *EVMPayer) CreatePaymentHeader(ctx context.Context, req types.PaymentRequirements) (string, error) {
	if types.Network(req.Network) != p.network {
		return "", &types.X402Error{
			Code:    types.ErrUnsupportedNetwork,
			Message: fmt.Sprintf("requirements are for %s, payer is on %s", req.Network, p.network),
		}
	}
	if !common.IsHexAddress(req.PayTo) || !common.IsHexAddress(req.Asset) {
		return "", &types.X402Error{
			Code:    types.ErrInvalidRequirements,
			Message: "payTo and asset must be EVM addresses",
		}
	}

	name, version := req.ExtraString("name"), req.ExtraString("version")
	if name == "" || version == "" {
		return "", &types.X402Error{
			Code:    types.ErrInvalidRequirements,
			Message: "requirements.extra must carry the token's EIP-712 name and version",
		}
	}

	nonce, err := p.nonce()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	now := p.now().Unix()
	auth := types.EIP3009Authorization{
		From:        p.address.Hex(),
		To:          common.HexToAddress(req.PayTo).Hex(),
		Value:       req.MaxAmountRequired,
		ValidAfter:  strconv.FormatInt(now-validAfterSkew, 10),
		ValidBefore: strconv.FormatInt(now+int64(req.MaxTimeoutSeconds), 10),
		Nonce:       hexutil.Encode(nonce[:]),
	}

	signature, err := p.signAuthorization(auth, name, version, req.Asset)
	if err != nil {
		return "", &types.X402Error{
			Code:    types.ErrSigningFailed,
			Message: fmt.Sprintf("sign EIP-3009 authorization: %v", err),
		}
	}

	return EncodePaymentHeader(types.PaymentPayload{
		X402Version: int(types.X402Version1),
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: types.ExactEVMPayload{
			Signature:     signature,
			Authorization: auth,
		},
	})
}

func (p *EVMPayer) signAuthorization(auth types.EIP3009Authorization, name, version, asset string) (string, error) {
	digest, err := TransferWithAuthorizationDigest(auth, name, version, p.network.ChainID(), asset)
	if err != nil {
		return "", err
	}

	return utils.SignHash(digest, p.key)
}

// TransferWithAuthorizationDigest is the EIP-712 digest signed for EIP-3009.
func TransferWithAuthorizationDigest(auth types.EIP3009Authorization, name, version string, chainID int64, asset string) ([]byte, error) {
	typed := apitypes.TypedData{
		Types:       transferWithAuthorizationTypes,
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              name,
			Version:           version,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: common.HexToAddress(asset).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"from":        auth.From,
			"to":          auth.To,
			"value":       auth.Value,
			"validAfter":  auth.ValidAfter,
			"validBefore": auth.ValidBefore,
			"nonce":       auth.Nonce,
		},
	}

	digest, _, err := apitypes.TypedDataAndHash(typed)
	return digest, err
}
