package logscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
	"vivarium/internal/jsonl"
	"vivarium/internal/observer"
)

func observationsCmd(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "observations",
		Short: "Show recent observations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			records, err := jsonl.Tail[observer.Observation](cfg.ObservationLogPath(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(ui.Muted("No observations recorded yet. Run 'vivarium agent run' first."))
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, obs := range records {
				rows = append(rows, []string{
					obs.At.Local().Format("15:04:05"),
					obs.ID,
					observationStatus(obs),
					observationSummary(obs),
				})
			}
			fmt.Println(ui.Table([]string{"TIME", "ID", "STATUS", "ACTIVITY"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show, oldest first")
	return cmd
}

func observationStatus(obs observer.Observation) string {
	if obs.Success {
		return "ok"
	}
	return "failed"
}

// observationSummary picks the most useful single line for the table:
// the activity summary when the cycle succeeded, the error otherwise.
func observationSummary(obs observer.Observation) string {
	if !obs.Success {
		return clip(obs.Error, 60)
	}
	if activity, ok := obs.Summary["activity"]; ok {
		return clip(activity, 60)
	}
	return clip(obs.Analysis, 60)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
