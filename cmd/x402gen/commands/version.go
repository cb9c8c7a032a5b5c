package commands

import (
	"github.com/spf13/cobra"
	"github.com/vitwit/x402gen"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and supported networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(a.stdout, x402gen.GetVersion())
		},
	}
}
