package sandboxcmd

import (
	"context"
	"fmt"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
	"vivarium/internal/sandbox"
	"vivarium/internal/telemetry"

	"github.com/spf13/cobra"
)

func buildCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the sandbox image and create the container",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			telemetryOut := ui.NewTelemetryOutput()
			defer telemetryOut.Close()

			op, err := telemetry.EmitPlan(cmd.Context(), telemetryOut.Tracer("vivarium/cmd/sandbox"), "sandbox.build", telemetry.Plan{Steps: []telemetry.PlannedStep{
				{ID: "connect", Title: "probing container engine"},
				{ID: "build", Title: "building sandbox"},
			}})
			if err != nil {
				return err
			}
			var opErr error
			defer func() {
				op.End(opErr)
			}()

			var (
				mgr     *sandbox.Manager
				cleanup func()
			)
			opErr = op.RunStep(op.Context(), "connect", func(stepCtx context.Context) error {
				m, _, cl, openErr := cmdutil.OpenSandbox(stepCtx, cfg)
				if openErr != nil {
					return openErr
				}
				mgr, cleanup = m, cl
				return nil
			})
			if opErr != nil {
				return opErr
			}
			defer cleanup()

			opErr = op.RunStep(op.Context(), "build", func(stepCtx context.Context) error {
				return mgr.Build(stepCtx)
			})
			if opErr != nil {
				return opErr
			}

			fmt.Println(ui.SuccessMsg("Sandbox %s built.", ui.Bold(mgr.Spec().Name)))
			return nil
		},
	}
}
