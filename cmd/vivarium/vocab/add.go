package vocabcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/ui"
)

func addCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <word>...",
		Short: "Add words to the vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configFlag)
			if err != nil {
				return err
			}

			added := 0
			for _, word := range args {
				before := store.Len()
				if err := store.Add(word); err != nil {
					return err
				}
				if store.Len() > before {
					added++
				}
			}

			skipped := len(args) - added
			if skipped > 0 {
				fmt.Println(ui.SuccessMsg("Added %d word(s), %d already present.", added, skipped))
				return nil
			}
			fmt.Println(ui.SuccessMsg("Added %d word(s).", added))
			return nil
		},
	}
}
