// Package whispercmd drives the whisper injector from the command line.
package whispercmd

import (
	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/cmdutil"
	"vivarium/internal/vocab"
	"vivarium/internal/whisper"
)

// Cmd returns the parent "vivarium whisper" command. configFlag points
// to the root persistent --config value.
func Cmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whisper",
		Short: "Inject vocabulary words into the sandbox",
	}

	cmd.AddCommand(injectCmd(configFlag))
	cmd.AddCommand(logCmd(configFlag))
	return cmd
}

// openInjector assembles a one-shot injector from the config.
func openInjector(configFlag *string) (*whisper.Injector, error) {
	cfg, err := cmdutil.LoadConfig(*configFlag)
	if err != nil {
		return nil, err
	}
	words, err := vocab.Open(cfg.VocabularyPath())
	if err != nil {
		return nil, err
	}
	journal, err := whisper.OpenLog(cfg.InjectionLogPath(), cfg.Whisper.LogCap)
	if err != nil {
		return nil, err
	}
	return whisper.NewInjector(words, cfg.WhisperPath(), journal), nil
}
