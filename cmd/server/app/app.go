package app

import (
	"context"

	"github.com/spf13/cobra"
)

// NewCommand returns the arcshare root command.
func NewCommand(ctx context.Context) *cobra.Command {
	o := newOptions()

	cmd := &cobra.Command{
		Use:   "arcshare",
		Short: "Runs and publishes shared-ownership verification scenarios",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.Complete()
		},
		SilenceUsage: true,
	}
	o.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newServeCommand(ctx, o),
		newRunCommand(ctx, o),
	)
	return cmd
}
