package sandboxcmd

import "github.com/spf13/cobra"

// Cmd returns the parent "vivarium sandbox" command. configFlag points
// to the root persistent --config value.
func Cmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Manage the sandbox container",
	}

	cmd.AddCommand(buildCmd(configFlag))
	cmd.AddCommand(startCmd(configFlag))
	cmd.AddCommand(stopCmd(configFlag))
	cmd.AddCommand(removeCmd(configFlag))
	cmd.AddCommand(statusCmd(configFlag))
	cmd.AddCommand(statsCmd(configFlag))
	cmd.AddCommand(execCmd(configFlag))
	return cmd
}
