package logscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
	"vivarium/internal/decision"
	"vivarium/internal/jsonl"
)

func decisionsCmd(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Show recent decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			records, err := jsonl.Tail[decision.LogEntry](cfg.DecisionLogPath(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(ui.Muted("No decisions recorded yet. Run 'vivarium agent run' first."))
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, entry := range records {
				rows = append(rows, []string{
					entry.At.Local().Format("15:04:05"),
					entry.ID,
					ui.OutcomeBadge(entry.Outcome),
					clip(entry.Command, 40),
					clip(entry.Reasoning, 50),
				})
			}
			fmt.Println(ui.Table([]string{"TIME", "ID", "OUTCOME", "COMMAND", "REASONING"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show, oldest first")
	return cmd
}
