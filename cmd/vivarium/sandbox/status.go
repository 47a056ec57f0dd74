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

func statusCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sandbox lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			telemetryOut := ui.NewTelemetryOutput()
			defer telemetryOut.Close()

			op, err := telemetry.EmitPlan(cmd.Context(), telemetryOut.Tracer("vivarium/cmd/sandbox"), "sandbox.status", telemetry.Plan{Steps: []telemetry.PlannedStep{{
				ID:    "status",
				Title: "probing sandbox",
			}}})
			if err != nil {
				return err
			}
			var opErr error
			defer func() {
				op.End(opErr)
			}()

			var (
				mgr *sandbox.Manager
				st  sandbox.State
			)
			opErr = op.RunStep(op.Context(), "status", func(stepCtx context.Context) error {
				m, _, cleanup, openErr := cmdutil.OpenSandbox(stepCtx, cfg)
				if openErr != nil {
					return openErr
				}
				defer cleanup()

				resolved, statusErr := m.Status(stepCtx)
				if statusErr != nil {
					return statusErr
				}
				mgr, st = m, resolved
				return nil
			})
			if opErr != nil {
				return opErr
			}

			pairs := []ui.Pair{
				ui.KV("container", mgr.Spec().Name),
				ui.KV("state", ui.StateBadge(st.String())),
				ui.KV("spec hash", mgr.Hash()[:12]),
			}
			if img := mgr.Spec().Image; img != "" {
				pairs = append(pairs, ui.KV("image", img))
			}
			if bc := mgr.Spec().BuildContext; bc != "" {
				pairs = append(pairs, ui.KV("build context", bc))
			}
			if st == sandbox.StateErrored {
				pairs = append(pairs, ui.KV("last error", ui.ErrorStyle.Render(mgr.LastError())))
			}
			fmt.Print(ui.KeyValues("", pairs...))
			return nil
		},
	}
}
