package commands

import (
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/siwe"
	"github.com/vitwit/x402gen/utils"
)

type siweOptions struct {
	domain    string
	uri       string
	chainID   int64
	statement string
	ttl       time.Duration
	raw       bool
}

func newSIWECmd(a *app) *cobra.Command {
	opts := &siweOptions{}
	cmd := &cobra.Command{
		Use:   "siwe",
		Short: "Sign a Sign-In with Ethereum message and print the Authorization header",
		Long: `Build an EIP-4361 message for EVM_PRIVATE_KEY, sign it with personal_sign and
print the header value "SIWE <base64 JSON>". Domain and URI default to API_BASE_URL,
the chain id to the configured EVM network.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSIWE(opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.domain, "domain", "", "RFC 3986 authority requesting the sign-in")
	f.StringVar(&opts.uri, "uri", "", "URI the sign-in applies to")
	f.Int64Var(&opts.chainID, "chain-id", 0, "EIP-155 chain id")
	f.StringVar(&opts.statement, "statement", "Sign in to pay for media generation.", "Human readable statement")
	f.DurationVar(&opts.ttl, "ttl", siwe.DefaultTTL, "Validity of the message")
	f.BoolVar(&opts.raw, "message", false, "Print the signed message text before the header")
	return cmd
}

func (a *app) runSIWE(opts *siweOptions) error {
	if a.cfg.EVMPrivateKey == "" {
		return &generation.Error{Kind: generation.ErrInput, Message: "EVM_PRIVATE_KEY is required"}
	}
	key, err := utils.PrivateKeyFromHex(a.cfg.EVMPrivateKey)
	if err != nil {
		return &generation.Error{Kind: generation.ErrInput, Message: "invalid EVM_PRIVATE_KEY", Err: err}
	}

	uri := opts.uri
	if uri == "" {
		uri = a.cfg.APIBaseURL
	}
	domain := opts.domain
	if domain == "" && uri != "" {
		if u, err := url.Parse(uri); err == nil {
			domain = u.Host
		}
	}
	chainID := opts.chainID
	if chainID == 0 {
		chainID = a.cfg.EVMNetwork.ChainID()
	}

	msg, err := siwe.NewMessage(domain, uri, utils.AddressFromPrivateKey(key).Hex(), chainID,
		siwe.WithStatement(opts.statement),
		siwe.WithTTL(opts.ttl),
	)
	if err != nil {
		return &generation.Error{Kind: generation.ErrInput, Err: err}
	}
	signed, err := siwe.Sign(msg, key)
	if err != nil {
		return err
	}
	header, err := signed.Header()
	if err != nil {
		return err
	}

	if opts.raw {
		a.println(signed.Message)
		a.println("")
	}
	a.println(siwe.HeaderName + ": " + header)
	return nil
}
