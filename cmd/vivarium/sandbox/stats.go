package sandboxcmd

import (
	"context"
	"fmt"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
	"vivarium/internal/sandbox"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func statsCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show sandbox resource usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			var (
				snap  sandbox.ResourceSnapshot
				state sandbox.State
			)
			err = ui.RunWithSpinner(cmd.Context(), "Reading sandbox stats", func(ctx context.Context) error {
				mgr, _, cleanup, openErr := cmdutil.OpenSandbox(ctx, cfg)
				if openErr != nil {
					return openErr
				}
				defer cleanup()

				state = mgr.Current()
				resolved, statsErr := mgr.Stats(ctx)
				if statsErr != nil {
					return statsErr
				}
				snap = resolved
				return nil
			})
			if err != nil {
				return err
			}

			if snap.At.IsZero() {
				fmt.Println(ui.WarnMsg("No stats recorded yet; the sandbox has not run."))
				return nil
			}

			memory := units.BytesSize(float64(snap.MemoryUsage))
			if snap.MemoryLimit > 0 {
				memory += " / " + units.BytesSize(float64(snap.MemoryLimit))
			}

			pairs := []ui.Pair{
				ui.KV("cpu", fmt.Sprintf("%.2f%%", snap.CPUPercent)),
				ui.KV("memory", memory),
				ui.KV("pids", fmt.Sprintf("%d", snap.PIDs)),
				ui.KV("sampled", snap.At.Local().Format("2006-01-02 15:04:05")),
			}
			fmt.Print(ui.KeyValues("", pairs...))

			if state != sandbox.StateRunning {
				fmt.Println(ui.Muted("sandbox is " + state.String() + "; showing the last known snapshot"))
			}
			return nil
		},
	}
}
