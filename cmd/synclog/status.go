package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the logging state and per-stream liveness",
	GroupID: "logging",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		info, err := loggerClient.Status(ctx)
		if err != nil {
			return fmt.Errorf("getting status: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), info)
		}
		printStatus(cmd.OutOrStdout(), info)
		return nil
	},
}
