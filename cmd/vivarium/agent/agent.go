package agentcmd

import "github.com/spf13/cobra"

// Cmd returns the parent "vivarium agent" command. configFlag points to
// the root persistent --config value.
func Cmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run the observation and decision loops",
	}

	cmd.AddCommand(runCmd(configFlag))
	cmd.AddCommand(observeCmd(configFlag))
	cmd.AddCommand(decideCmd(configFlag))
	return cmd
}
