// Package logscmd renders the agent's append-only JSONL logs.
package logscmd

import "github.com/spf13/cobra"

// Cmd returns the parent "vivarium logs" command. configFlag points to
// the root persistent --config value.
func Cmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show observation and decision history",
	}

	cmd.AddCommand(observationsCmd(configFlag))
	cmd.AddCommand(decisionsCmd(configFlag))
	return cmd
}
