package agentcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
)

func decideCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "decide",
		Short: "Run one observe-and-decide cycle",
		Long: `Decide runs a single full cycle: observe the sandbox, ask the policy
what to do, filter the proposed command, and execute it. Both the
observation and the decision are appended to their logs.`,
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
			entry := sup.Engine.Decide(ctx, obs)

			fmt.Println(ui.SuccessMsg("Decision %s recorded.", ui.Bold(entry.ID)))
			pairs := []ui.Pair{
				ui.KV("observation", entry.ObservationID),
				ui.KV("outcome", entry.Outcome),
			}
			if entry.Reasoning != "" {
				pairs = append(pairs, ui.KV("reasoning", entry.Reasoning))
			}
			if entry.Command != "" {
				pairs = append(pairs, ui.KV("command", entry.Command))
			}
			if entry.Detail != "" {
				pairs = append(pairs, ui.KV("detail", entry.Detail))
			}
			if entry.ExitCode != nil {
				pairs = append(pairs, ui.KV("exit code", fmt.Sprintf("%d", *entry.ExitCode)))
			}
			fmt.Print(ui.KeyValues("  ", pairs...))
			return nil
		},
	}
}
