package whispercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
	"vivarium/internal/whisper"
)

func logCmd(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent injection attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}
			journal, err := whisper.OpenLog(cfg.InjectionLogPath(), cfg.Whisper.LogCap)
			if err != nil {
				return err
			}

			entries := journal.Recent(limit)
			if len(entries) == 0 {
				fmt.Println(ui.Muted("No injections recorded yet."))
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.At.Local().Format("2006-01-02 15:04:05"),
					e.Word,
					outcome(e),
				})
			}
			fmt.Println(ui.Table([]string{"TIME", "WORD", "OUTCOME"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show, oldest first")
	return cmd
}

func outcome(e whisper.Entry) string {
	switch {
	case e.Success:
		return "injected"
	case e.Skipped != "":
		return "skipped: " + e.Skipped
	case e.Error != "":
		return "failed: " + e.Error
	default:
		return "unknown"
	}
}
