package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:     "start",
	Short:   "Enable logging and open a new CSV sink",
	GroupID: "logging",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLogging(cmd, true)
	},
}

var stopCmd = &cobra.Command{
	Use:     "stop",
	Short:   "Disable logging and close the current sink",
	GroupID: "logging",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLogging(cmd, false)
	},
}

func setLogging(cmd *cobra.Command, enable bool) error {
	ctx, cancel := commandContext()
	defer cancel()

	id, err := loggerClient.RequestLogging(ctx, enable)
	if err != nil {
		if enable {
			return fmt.Errorf("enabling logging: %w", err)
		}
		return fmt.Errorf("disabling logging: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]any{"enabled": enable, "sink_identifier": id})
	}
	verb := "Logging to"
	if !enable {
		verb = "Stopped; last sink"
	}
	if id == "" {
		fmt.Fprintf(out, "%s: (none)\n", verb)
		return nil
	}
	fmt.Fprintf(out, "%s: %s\n", verb, id)
	return nil
}
