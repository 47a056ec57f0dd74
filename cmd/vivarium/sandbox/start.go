package sandboxcmd

import (
	"context"
	"fmt"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"

	"github.com/spf13/cobra"
)

func startCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the sandbox container",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			name := cfg.ContainerName()
			err = ui.RunWithSpinner(cmd.Context(), fmt.Sprintf("Starting sandbox %s", ui.Bold(name)), func(ctx context.Context) error {
				mgr, _, cleanup, openErr := cmdutil.OpenSandbox(ctx, cfg)
				if openErr != nil {
					return openErr
				}
				defer cleanup()

				name = mgr.Spec().Name
				return mgr.Start(ctx)
			})
			if err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Sandbox %s running.", ui.Bold(name)))
			return nil
		},
	}
}
