package commands

import (
	"github.com/spf13/cobra"
	"github.com/vitwit/x402gen/generation"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <taskId>",
		Short: "Read the current status of a generation job once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireAPIBaseURL(); err != nil {
				return err
			}
			// Status reads are unpaid; a plain client stands in for the payer.
			client, err := generation.NewClient(a.cfg.APIBaseURL, a.paidHTTPClient(),
				generation.WithLogger(a.log),
				generation.WithMetrics(a.metrics),
			)
			if err != nil {
				return err
			}
			st, err := client.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, st)
		},
	}
}
