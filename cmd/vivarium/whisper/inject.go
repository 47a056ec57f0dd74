package whispercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/ui"
	"vivarium/internal/whisper"
)

func injectCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "inject",
		Short: "Inject one random word right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			inj, err := openInjector(configFlag)
			if err != nil {
				return err
			}

			entry, err := inj.InjectNow()
			if err != nil {
				return err
			}
			if entry.Skipped == whisper.SkipEmptyVocabulary {
				fmt.Println(ui.WarnMsg("Nothing to inject: the vocabulary is empty."))
				return nil
			}
			fmt.Println(ui.SuccessMsg("Injected %s into %s.", ui.Bold(entry.Word), inj.Path()))
			return nil
		},
	}
}
