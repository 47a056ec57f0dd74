package main

import (
	"fmt"
	"os"

	agentcmd "vivarium/cmd/vivarium/agent"
	auditcmd "vivarium/cmd/vivarium/audit"
	configurecmd "vivarium/cmd/vivarium/configure"
	logscmd "vivarium/cmd/vivarium/logs"
	sandboxcmd "vivarium/cmd/vivarium/sandbox"
	vocabcmd "vivarium/cmd/vivarium/vocab"
	whispercmd "vivarium/cmd/vivarium/whisper"
	"vivarium/config"
	"vivarium/internal/logging"
	"vivarium/internal/support/buildinfo"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug      bool
		configPath string
	)
	if err := logging.Configure(logging.LevelWarn, ""); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "vivarium",
		Short:         "A watched habitat for a sandboxed AI agent",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			level := logging.LevelWarn
			if cfg.LogLevel != "" {
				level = cfg.LogLevel
			}
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level, cfg.LogFile)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.Path()+")")

	root.AddCommand(sandboxcmd.Cmd(&configPath))
	root.AddCommand(agentcmd.Cmd(&configPath))
	root.AddCommand(vocabcmd.Cmd(&configPath))
	root.AddCommand(whispercmd.Cmd(&configPath))
	root.AddCommand(logscmd.Cmd(&configPath))
	root.AddCommand(auditcmd.Cmd(&configPath))
	root.AddCommand(configurecmd.Cmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
