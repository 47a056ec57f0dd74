package vocabcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/ui"
)

func clearCmd(configFlag *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every word from the vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configFlag)
			if err != nil {
				return err
			}

			if store.Len() == 0 {
				fmt.Println(ui.Muted("Vocabulary is already empty."))
				return nil
			}

			if !yes {
				ok, err := ui.Confirm(fmt.Sprintf("Delete all %d word(s)?", store.Len()), "use --yes to skip this prompt")
				if err != nil {
					if errors.Is(err, ui.ErrCancelled) {
						fmt.Println(ui.WarnMsg("Aborted."))
						return nil
					}
					return err
				}
				if !ok {
					fmt.Println(ui.WarnMsg("Aborted."))
					return nil
				}
			}

			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMsg("Vocabulary cleared."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
