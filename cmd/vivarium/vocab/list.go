package vocabcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/ui"
)

func listCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the vocabulary in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configFlag)
			if err != nil {
				return err
			}

			words := store.List()
			if len(words) == 0 {
				fmt.Println(ui.Muted("Vocabulary is empty. Add words with 'vivarium vocab add'."))
				return nil
			}

			rows := make([][]string, 0, len(words))
			for i, word := range words {
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), word})
			}
			fmt.Println(ui.Table([]string{"#", "WORD"}, rows))
			return nil
		},
	}
}
