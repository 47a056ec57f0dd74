package sandboxcmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"vivarium/cmd/vivarium/cmdutil"

	"github.com/spf13/cobra"
)

func execCmd(configFlag *string) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "exec <command>...",
		Short: "Run a filtered command inside the sandbox",
		Long: `Run a command inside the running sandbox. The command passes the
safety filter first; rejected commands never reach the container. The
command's exit code becomes the exit code of this process.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("timeout") && cfg.Sandbox.ExecTimeout.Std() > 0 {
				timeout = cfg.Sandbox.ExecTimeout.Std()
			}

			mgr, _, cleanup, err := cmdutil.OpenSandbox(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			res, err := mgr.Exec(cmd.Context(), strings.Join(args, " "), timeout)
			cleanup()
			if err != nil {
				return err
			}

			if res.Stdout != "" {
				fmt.Fprint(os.Stdout, res.Stdout)
			}
			if res.Stderr != "" {
				fmt.Fprint(os.Stderr, res.Stderr)
			}
			if res.ExitCode != 0 {
				os.Exit(res.ExitCode)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Kill the command after this long")
	return cmd
}
