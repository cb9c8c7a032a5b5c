// Package config resolves x402gen settings from flags, environment, .env
// files and an optional x402gen.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/vitwit/x402gen/clients"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/payment"
	"github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/utils"
)

// Keys double as environment variable names (upper-cased by viper).
const (
	KeyAPIBaseURL         = "api_base_url"
	KeyEVMPrivateKey      = "evm_private_key"
	KeySolanaPrivateKey   = "solana_private_key"
	KeyEVMNetwork         = "evm_network"
	KeySolanaNetwork      = "solana_network"
	KeyEVMRPCURL          = "evm_rpc_url"
	KeySolanaRPCURL       = "solana_rpc_url"
	KeyTokenAddress       = "token_address"
	KeyMaxPayment         = "max_payment"
	KeyHTTPTimeout        = "http_timeout"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
	KeyMetricsPushgateway = "metrics_pushgateway"
)

type Config struct {
	APIBaseURL string

	EVMPrivateKey    string
	SolanaPrivateKey string
	EVMNetwork       types.Network
	SolanaNetwork    types.Network
	EVMRPCURL        string
	SolanaRPCURL     string

	TokenAddress string
	// MaxPayment caps a single payment in atomic units; nil means no cap.
	MaxPayment *decimal.Decimal

	HTTPTimeout        time.Duration
	LogLevel           string
	LogFormat          string
	MetricsPushgateway string
}

// NewViper loads .env files into the environment and returns a viper instance
// with defaults, environment binding and the optional config file applied.
func NewViper(configFile string) (*viper.Viper, error) {
	// Missing .env files are fine.
	_ = godotenv.Load(".env", ".env.local")

	v := viper.New()
	v.SetDefault(KeyEVMNetwork, string(types.NetworkBase))
	v.SetDefault(KeySolanaNetwork, string(types.NetworkSolana))
	v.SetDefault(KeyHTTPTimeout, "2m")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "json")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("x402gen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads a Config out of v. Only shape is checked here; which fields are
// required depends on the command.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		APIBaseURL:         strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIBaseURL)), "/"),
		EVMPrivateKey:      strings.TrimSpace(v.GetString(KeyEVMPrivateKey)),
		SolanaPrivateKey:   strings.TrimSpace(v.GetString(KeySolanaPrivateKey)),
		EVMRPCURL:          strings.TrimSpace(v.GetString(KeyEVMRPCURL)),
		SolanaRPCURL:       strings.TrimSpace(v.GetString(KeySolanaRPCURL)),
		TokenAddress:       strings.TrimSpace(v.GetString(KeyTokenAddress)),
		HTTPTimeout:        v.GetDuration(KeyHTTPTimeout),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
		MetricsPushgateway: strings.TrimSpace(v.GetString(KeyMetricsPushgateway)),
	}

	var err error
	if c.EVMNetwork, err = parseFamily(v.GetString(KeyEVMNetwork), types.ChainEVM); err != nil {
		return nil, err
	}
	if c.SolanaNetwork, err = parseFamily(v.GetString(KeySolanaNetwork), types.ChainSolana); err != nil {
		return nil, err
	}
	if c.EVMRPCURL == "" {
		c.EVMRPCURL = c.EVMNetwork.DefaultRPCURL()
	}
	if c.SolanaRPCURL == "" {
		c.SolanaRPCURL = c.SolanaNetwork.DefaultRPCURL()
	}

	if raw := strings.TrimSpace(v.GetString(KeyMaxPayment)); raw != "" {
		limit, err := utils.ValidateAmount(raw)
		if err != nil {
			return nil, inputError("%s must be a non-negative amount in atomic units, got %q", strings.ToUpper(KeyMaxPayment), raw)
		}
		c.MaxPayment = limit
	}
	if c.HTTPTimeout <= 0 {
		return nil, inputError("%s must be a positive duration", strings.ToUpper(KeyHTTPTimeout))
	}
	return c, nil
}

func parseFamily(s string, family types.ChainFamily) (types.Network, error) {
	n, err := types.ParseNetwork(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return "", &generation.Error{Kind: generation.ErrInput, Err: err}
	}
	if n.Family() != family {
		return "", inputError("%s is not a %s network", n, family)
	}
	return n, nil
}

func inputError(format string, args ...any) error {
	return &generation.Error{Kind: generation.ErrInput, Message: fmt.Sprintf(format, args...)}
}

// RequireAPIBaseURL fails unless API_BASE_URL is set.
func (c *Config) RequireAPIBaseURL() error {
	if c.APIBaseURL == "" {
		return inputError("%s is required", strings.ToUpper(KeyAPIBaseURL))
	}
	return nil
}

// PaymentNetwork is the network payments settle on. Solana wins when both
// keys are configured.
func (c *Config) PaymentNetwork() (types.Network, error) {
	switch {
	case c.SolanaPrivateKey != "":
		return c.SolanaNetwork, nil
	case c.EVMPrivateKey != "":
		return c.EVMNetwork, nil
	}
	return "", inputError("set %s or %s to pay for generations",
		strings.ToUpper(KeySolanaPrivateKey), strings.ToUpper(KeyEVMPrivateKey))
}

// NewPayer builds the Payer for PaymentNetwork.
func (c *Config) NewPayer() (payment.Payer, error) {
	network, err := c.PaymentNetwork()
	if err != nil {
		return nil, err
	}

	if network.IsSolana() {
		rpc, err := clients.NewSolanaClient(network, c.SolanaRPCURL)
		if err != nil {
			return nil, err
		}
		p, err := payment.NewSVMPayer(c.SolanaPrivateKey, network, rpc)
		if err != nil {
			return nil, &generation.Error{Kind: generation.ErrInput, Err: err}
		}
		return p, nil
	}

	p, err := payment.NewEVMPayer(c.EVMPrivateKey, network)
	if err != nil {
		return nil, &generation.Error{Kind: generation.ErrInput, Err: err}
	}
	return p, nil
}

// PaymentOptions returns the payment.Client options implied by the config.
func (c *Config) PaymentOptions() []payment.Option {
	var opts []payment.Option
	if c.MaxPayment != nil {
		opts = append(opts, payment.WithMaxAmount(*c.MaxPayment))
	}
	return opts
}
