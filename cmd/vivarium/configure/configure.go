// Package configurecmd writes a starter configuration file.
package configurecmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vivarium/cmd/vivarium/ui"
	"vivarium/config"
)

// starterConfig is written verbatim so the file keeps its comments;
// config.Save would strip them.
const starterConfig = `# vivarium configuration
# Every key is optional; omitted keys use built-in defaults.

# log-level: debug | info | warn | error
# log-file: /path/to/vivarium.log

api:
  # base-url: https://api.openai.com/v1
  # key: sk-...            # or export OPENAI_API_KEY

sandbox:
  # compose-file: ./docker-compose.yml
  # service: agent         # service to pick from the compose file
  name: vivarium-sandbox
  image: vivarium-agent:latest
  memory: 2g
  cpus: 2
  stop-grace: 10s
  exec-timeout: 30s

observer:
  interval: 30s
  backoff: 5s
  history-cap: 10
  vision-model: gpt-4o

decision:
  model: gpt-4o
  # policy: rules          # offline rule policy instead of the model

whisper:
  interval: 30m
  log-cap: 1000
`

// Cmd returns the "vivarium configure" command. configFlag points to
// the root persistent --config value.
func Cmd(configFlag *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configFlag
			if path == "" {
				path = config.Path()
			}

			if _, err := os.Stat(path); err == nil && !force {
				fmt.Println(ui.WarnMsg("%s already exists; use --force to overwrite.", path))
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Println(ui.SuccessMsg("Wrote %s.", ui.Bold(path)))
			fmt.Println(ui.Muted("Edit it, then run 'vivarium sandbox build'."))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
