package agentcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
)

func runCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent loops in foreground",
		Long: `Run starts the sandbox if needed, then runs the observation loop,
the decision engine, and the whisper injector until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			sup, cleanup, err := cmdutil.BuildAgent(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			sup.OnEvent = func(event, message string) {
				fmt.Println(ui.InfoMsg("%s", message))
			}
			sup.OnFailure = func(err error) {
				fmt.Fprintln(os.Stderr, ui.ErrorMsg("%v", err))
			}

			if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Println(ui.SuccessMsg("Agent stopped."))
			return nil
		},
	}
}
