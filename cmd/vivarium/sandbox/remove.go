package sandboxcmd

import (
	"context"
	"fmt"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"

	"github.com/spf13/cobra"
)

func removeCmd(configFlag *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Force-remove the sandbox container",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}
			name := cfg.ContainerName()

			if !yes {
				ok, err := ui.Confirm(fmt.Sprintf("Remove sandbox %s?", ui.Bold(name)), "use --yes to skip")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(ui.WarnMsg("Aborted."))
					return nil
				}
			}

			err = ui.RunWithSpinner(cmd.Context(), fmt.Sprintf("Removing sandbox %s", ui.Bold(name)), func(ctx context.Context) error {
				mgr, _, cleanup, openErr := cmdutil.OpenSandbox(ctx, cfg)
				if openErr != nil {
					return openErr
				}
				defer cleanup()

				name = mgr.Spec().Name
				return mgr.Remove(ctx)
			})
			if err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Sandbox %s removed.", ui.Bold(name)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
