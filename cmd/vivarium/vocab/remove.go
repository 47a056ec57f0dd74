package vocabcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/ui"
)

func removeCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <word>...",
		Short: "Remove words from the vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configFlag)
			if err != nil {
				return err
			}

			for _, word := range args {
				if err := store.Remove(word); err != nil {
					return err
				}
			}
			fmt.Println(ui.SuccessMsg("Vocabulary now holds %d word(s).", store.Len()))
			return nil
		},
	}
}
