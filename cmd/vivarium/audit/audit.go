// Package auditcmd lists the sandbox audit trail.
package auditcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/cmd/vivarium/ui"
)

// Cmd returns the "vivarium audit" command. configFlag points to the
// root persistent --config value.
func Cmd(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recorded lifecycle and exec events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}
			store, err := cmdutil.OpenAudit(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println(ui.Muted("No audit events recorded yet."))
				return nil
			}

			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				result := "ok"
				detail := ev.Detail
				if !ev.Success {
					result = "failed"
					if ev.Error != "" {
						detail = ev.Error
					}
				}
				if len(detail) > 60 {
					detail = detail[:57] + "..."
				}
				rows = append(rows, []string{
					ev.At.Local().Format("2006-01-02 15:04:05"),
					ev.Type,
					ev.Container,
					result,
					detail,
				})
			}
			fmt.Println(ui.Table([]string{"TIME", "EVENT", "CONTAINER", "RESULT", "DETAIL"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum events to show, newest first")
	return cmd
}
