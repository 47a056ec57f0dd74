// Package vocabcmd manages the whisper vocabulary from the command line.
package vocabcmd

import (
	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/internal/vocab"
)

// Cmd returns the parent "vivarium vocab" command. configFlag points to
// the root persistent --config value.
func Cmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage the whisper vocabulary",
	}

	cmd.AddCommand(addCmd(configFlag))
	cmd.AddCommand(removeCmd(configFlag))
	cmd.AddCommand(listCmd(configFlag))
	cmd.AddCommand(clearCmd(configFlag))
	return cmd
}

// openStore loads the vocabulary file named by the config.
func openStore(configFlag *string) (*vocab.Store, error) {
	cfg, err := cmdutil.LoadConfig(*configFlag)
	if err != nil {
		return nil, err
	}
	return vocab.Open(cfg.VocabularyPath())
}
