package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetwork(t *testing.T) {
	n, err := ParseNetwork("base-sepolia")
	require.NoError(t, err)
	assert.Equal(t, NetworkBaseSepolia, n)
	assert.True(t, n.IsEVM())
	assert.True(t, n.IsTestnet())
	assert.Equal(t, int64(84532), n.ChainID())

	_, err = ParseNetwork("cosmoshub")
	require.Error(t, err)
	var xe *X402Error
	require.True(t, errors.As(err, &xe))
	assert.Equal(t, ErrUnsupportedNetwork, xe.Code)
}

func TestNetworkTable(t *testing.T) {
	for _, n := range SupportedNetworks() {
		assert.NotEmpty(t, n.ExplorerTemplate(), n)
		assert.NotEmpty(t, n.USDC(), n)
		assert.NotEmpty(t, n.DefaultRPCURL(), n)
		assert.NotEqual(t, n.IsEVM(), n.IsSolana(), n)
		if n.IsEVM() {
			assert.Positive(t, n.ChainID(), n)
		} else {
			assert.Zero(t, n.ChainID(), n)
		}
	}
	assert.Equal(t, []Network{
		NetworkBase, NetworkBaseSepolia, NetworkPolygon, NetworkPolygonAmoy, NetworkSolana, NetworkSolanaDevnet,
	}, SupportedNetworks())
}

func TestUnknownNetwork(t *testing.T) {
	n := Network("near")
	assert.Equal(t, ChainFamily(""), n.Family())
	assert.False(t, n.IsEVM())
	assert.False(t, n.IsSolana())
	assert.Empty(t, n.ExplorerTemplate())
}

func TestPaymentRequirementsValidate(t *testing.T) {
	pr := PaymentRequirements{
		Scheme:            "exact",
		Network:           "base",
		MaxAmountRequired: "100000",
		PayTo:             "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		MaxTimeoutSeconds: 60,
		Asset:             NetworkBase.USDC(),
		Extra:             map[string]interface{}{"name": "USD Coin", "version": 2},
	}
	require.NoError(t, pr.Validate())
	assert.Equal(t, "USD Coin", pr.ExtraString("name"))
	assert.Empty(t, pr.ExtraString("version"))
	assert.Empty(t, pr.ExtraString("missing"))

	pr.MaxTimeoutSeconds = 0
	assert.Error(t, pr.Validate())
}
