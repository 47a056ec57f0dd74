package agentcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
)

func observeCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "observe",
		Short: "Capture and analyze one snapshot",
		Long: `Observe runs a single observer cycle against the running sandbox:
capture a screenshot, describe it with the vision model, and append the
result to the observation log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			sup, cleanup, err := cmdutil.BuildAgent(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			obs := sup.Observer.Observe(ctx)
			if !obs.Success {
				return fmt.Errorf("observation failed: %s", obs.Error)
			}

			fmt.Println(ui.SuccessMsg("Observation %s recorded.", ui.Bold(obs.ID)))
			pairs := []ui.Pair{
				ui.KV("snapshot", obs.Snapshot),
				ui.KV("model", obs.Model),
			}
			for _, key := range []string{"activity", "windows", "text", "errors"} {
				if v, ok := obs.Summary[key]; ok {
					pairs = append(pairs, ui.KV(key, v))
				}
			}
			fmt.Print(ui.KeyValues("  ", pairs...))
			return nil
		},
	}
}
