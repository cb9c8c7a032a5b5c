package siwe

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/x402gen/utils"
)

const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestNewMessageDefaults(t *testing.T) {
	msg, err := NewMessage("api.example.com", "https://api.example.com/login", strings.ToLower(testAddress), 8453, WithClock(clock))
	require.NoError(t, err)

	assert.Equal(t, testAddress, msg.Address, "address is checksummed")
	assert.Equal(t, "1", msg.Version)
	assert.Len(t, msg.Nonce, 32)
	assert.Equal(t, fixedNow, msg.IssuedAt)
	require.NotNil(t, msg.ExpirationTime)
	assert.Equal(t, fixedNow.Add(10*time.Minute), *msg.ExpirationTime)
}

func TestMessageString(t *testing.T) {
	msg, err := NewMessage("api.example.com", "https://api.example.com", testAddress, 1,
		WithClock(clock),
		WithNonce("abcdef1234"),
		WithStatement("Sign in to generate videos."),
		WithRequestID("req-1"),
		WithResources("https://api.example.com/generation"),
	)
	require.NoError(t, err)

	want := "api.example.com wants you to sign in with your Ethereum account:\n" +
		testAddress + "\n\n" +
		"Sign in to generate videos.\n\n" +
		"URI: https://api.example.com\n" +
		"Version: 1\n" +
		"Chain ID: 1\n" +
		"Nonce: abcdef1234\n" +
		"Issued At: 2026-03-01T12:00:00Z\n" +
		"Expiration Time: 2026-03-01T12:10:00Z\n" +
		"Request ID: req-1\n" +
		"Resources:\n" +
		"- https://api.example.com/generation"
	assert.Equal(t, want, msg.String())

	parsed, err := ParseMessage(want)
	require.NoError(t, err)
	assert.Equal(t, msg.String(), parsed.String())
}

func TestMessageWithoutStatementRoundTrips(t *testing.T) {
	msg, err := NewMessage("localhost:8080", "http://localhost:8080", testAddress, 84532, WithClock(clock), WithTTL(0))
	require.NoError(t, err)
	assert.Nil(t, msg.ExpirationTime)
	assert.Contains(t, msg.String(), testAddress+"\n\n\nURI: ")

	parsed, err := ParseMessage(msg.String())
	require.NoError(t, err)
	assert.Equal(t, msg.Nonce, parsed.Nonce)
	assert.Equal(t, int64(84532), parsed.ChainID)
}

func TestNewMessageValidation(t *testing.T) {
	_, err := NewMessage("api.example.com", "https://api.example.com", "not-an-address", 1)
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = NewMessage("api.example.com", "https://api.example.com", testAddress, 0)
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = NewMessage("api.example.com", "https://api.example.com", testAddress, 1, WithNonce("short"))
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = NewMessage("api.example.com", "https://api.example.com", testAddress, 1, WithStatement("two\nlines"))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestSignHeaderVerify(t *testing.T) {
	key, err := utils.PrivateKeyFromHex(testKey)
	require.NoError(t, err)

	msg, err := NewMessage("api.example.com", "https://api.example.com", testAddress, 8453, WithClock(clock))
	require.NoError(t, err)

	signed, err := Sign(msg, key)
	require.NoError(t, err)

	header, err := signed.Header()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, "SIWE "))

	decoded, err := ParseHeader(header)
	require.NoError(t, err)
	assert.Equal(t, signed, decoded)

	got, err := Verify(decoded, fixedNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, testAddress, got.Address)

	_, err = Verify(decoded, fixedNow.Add(11*time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsTampering(t *testing.T) {
	key, err := utils.PrivateKeyFromHex(testKey)
	require.NoError(t, err)
	msg, err := NewMessage("api.example.com", "https://api.example.com", testAddress, 8453, WithClock(clock))
	require.NoError(t, err)
	signed, err := Sign(msg, key)
	require.NoError(t, err)

	tampered := *signed
	tampered.Message = strings.Replace(signed.Message, "Chain ID: 8453", "Chain ID: 1", 1)
	_, err = Verify(&tampered, fixedNow)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestSignRejectsForeignAddress(t *testing.T) {
	key, err := utils.PrivateKeyFromHex(testKey)
	require.NoError(t, err)
	msg, err := NewMessage("api.example.com", "https://api.example.com", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", 1)
	require.NoError(t, err)

	_, err = Sign(msg, key)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestParseHeaderErrors(t *testing.T) {
	_, err := ParseHeader("Bearer abc")
	assert.ErrorIs(t, err, ErrInvalidMessage)
	_, err = ParseHeader("SIWE !!!")
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
