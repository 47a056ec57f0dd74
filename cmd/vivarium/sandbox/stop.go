package sandboxcmd

import (
	"context"
	"fmt"
	"time"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"

	"github.com/spf13/cobra"
)

func stopCmd(configFlag *string) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the sandbox container",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("grace") && cfg.Sandbox.StopGrace.Std() > 0 {
				grace = cfg.Sandbox.StopGrace.Std()
			}

			name := cfg.ContainerName()
			err = ui.RunWithSpinner(cmd.Context(), fmt.Sprintf("Stopping sandbox %s", ui.Bold(name)), func(ctx context.Context) error {
				mgr, _, cleanup, openErr := cmdutil.OpenSandbox(ctx, cfg)
				if openErr != nil {
					return openErr
				}
				defer cleanup()

				name = mgr.Spec().Name
				return mgr.Stop(ctx, grace)
			})
			if err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Sandbox %s stopped.", ui.Bold(name)))
			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 10*time.Second, "Grace period before the engine kills the main process")
	return cmd
}
