package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vitwit/x402gen/generation"
	"github.com/vitwit/x402gen/mockserver"
	"github.com/vitwit/x402gen/types"
)

type mockOptions struct {
	addr     string
	polls    int
	price    string
	networks []string
	cors     bool
	pprof    bool
}

func newMockServerCmd(a *app) *cobra.Command {
	opts := &mockOptions{}
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local x402 generation API for development",
		Long: `Serve POST /generation/create behind an x402 paywall that verifies payments
offline and settles them in simulation, plus GET /generation/:id/status.
Prompts containing "fail" end in a failed job.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := mockserver.Config{
				Price:           opts.price,
				PollsToComplete: opts.polls,
				CORS:            opts.cors,
				Profiling:       opts.pprof,
			}
			for _, name := range opts.networks {
				n, err := types.ParseNetwork(strings.TrimSpace(name))
				if err != nil {
					return &generation.Error{Kind: generation.ErrInput, Err: err}
				}
				cfg.Networks = append(cfg.Networks, n)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := mockserver.New(cfg, a.log.Zap())
			fmt.Fprintf(a.stderr, "mock generation API on %s (networks: %s)\n",
				opts.addr, strings.Join(networkList(srv.Config().Networks), ", "))
			return srv.ListenAndServe(ctx, opts.addr)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", ":8402", "Listen address")
	f.IntVar(&opts.polls, "polls", 3, "Status reads before a task completes")
	f.StringVar(&opts.price, "price", "100000", "Price per generation in atomic token units")
	f.StringSliceVar(&opts.networks, "networks", nil, "Networks to accept (default: base, base-sepolia, solana, solana-devnet)")
	f.BoolVar(&opts.cors, "cors", false, "Allow cross-origin requests")
	f.BoolVar(&opts.pprof, "pprof", false, "Expose /debug/pprof")
	return cmd
}

func networkList(ns []types.Network) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.String()
	}
	return out
}
