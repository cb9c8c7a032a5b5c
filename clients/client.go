package clients

import (
	x402types "github.com/vitwit/x402gen/types"
)

// Client is the common surface of the read-only chain clients.
type Client interface {
	GetNetwork() x402types.Network
	Close()
}
