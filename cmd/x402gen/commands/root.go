package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vitwit/x402gen/config"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/logger"
	"github.com/vitwit/x402gen/metrics"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *logger.ZapLogger
	metrics *metrics.PrometheusRecorder
	// genOpts are appended to every generation client the commands build.
	genOpts []generation.Option

	stdout io.Writer
	stderr io.Writer
}

// persistentFlags maps flag names to config keys.
var persistentFlags = map[string]string{
	"api-url":             config.KeyAPIBaseURL,
	"evm-network":         config.KeyEVMNetwork,
	"solana-network":      config.KeySolanaNetwork,
	"evm-rpc":             config.KeyEVMRPCURL,
	"solana-rpc":          config.KeySolanaRPCURL,
	"max-payment":         config.KeyMaxPayment,
	"http-timeout":        config.KeyHTTPTimeout,
	"log-level":           config.KeyLogLevel,
	"log-format":          config.KeyLogFormat,
	"metrics-pushgateway": config.KeyMetricsPushgateway,
}

// newRoot builds the x402gen command tree writing to stdout and stderr.
func newRoot(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "x402gen",
		Short: "Pay for and follow AI media generation jobs over x402",
		Long: `x402gen submits media generation jobs to an x402-enabled API, paying with
an EVM (EIP-3009) or Solana (SPL) wallet, then polls the job until it completes.

Credentials and endpoints come from flags, the environment, a .env file or
x402gen.yaml. When both SOLANA_PRIVATE_KEY and EVM_PRIVATE_KEY are set, Solana pays.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default: ./x402gen.yaml if present)")
	pf.String("api-url", "", "Generation API base URL (API_BASE_URL)")
	pf.String("evm-network", "", "EVM network: base, base-sepolia, polygon, polygon-amoy (EVM_NETWORK)")
	pf.String("solana-network", "", "Solana network: solana, solana-devnet (SOLANA_NETWORK)")
	pf.String("evm-rpc", "", "EVM JSON-RPC URL (EVM_RPC_URL)")
	pf.String("solana-rpc", "", "Solana JSON-RPC URL (SOLANA_RPC_URL)")
	pf.String("max-payment", "", "Refuse payments above this many atomic token units (MAX_PAYMENT)")
	pf.String("http-timeout", "", "Timeout for paid HTTP requests, e.g. 2m (HTTP_TIMEOUT)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (LOG_LEVEL)")
	pf.String("log-format", "", "Log format: json or console (LOG_FORMAT)")
	pf.String("metrics-pushgateway", "", "Push run metrics to this Prometheus Pushgateway (METRICS_PUSHGATEWAY)")

	root.AddCommand(
		newGenerateCmd(a),
		newStatusCmd(a),
		newBalanceCmd(a),
		newSIWECmd(a),
		newMockServerCmd(a),
		newVersionCmd(a),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(a.cfgFile)
	if err != nil {
		return err
	}
	for name, key := range persistentFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	a.v = v
	a.cfg = cfg
	a.log = logger.NewZapLogger(cfg.LogLevel, cfg.LogFormat)
	a.metrics = metrics.NewPrometheusRecorder()
	return nil
}

// finish flushes logs and, when configured, pushes metrics.
func (a *app) finish() {
	if a.cfg == nil {
		return
	}
	if a.cfg.MetricsPushgateway != "" && a.metrics != nil {
		if err := a.metrics.Push(a.cfg.MetricsPushgateway, "x402gen"); err != nil {
			a.log.Warn("metrics push failed", map[string]any{"error": err.Error()})
		}
	}
	a.log.Sync()
}

func (a *app) println(s string) {
	fmt.Fprintln(a.stdout, s)
}

func (a *app) paidHTTPClient() *http.Client {
	return &http.Client{Timeout: a.cfg.HTTPTimeout}
}

// Execute runs the CLI against the process streams.
func Execute() error {
	root, a := newRoot(os.Stdout, os.Stderr)
	return a.run(root, os.Args[1:])
}

func (a *app) run(root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.Execute()
	a.finish()
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return err
}
