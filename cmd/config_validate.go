package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arneg82/migAz/internal/config"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:     "validate [file]",
	Short:   "Validate a configuration file",
	Example: "  migaz config validate migaz.yaml",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := f.ConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no configuration file given (use --config or an argument)")
		}

		cfg, err := config.Load(path)
		if err != nil {
			return logError(err, "configuration is invalid")
		}
		env, err := cfg.ResolveEnvironment("")
		if err != nil {
			return err
		}

		logSuccess("configuration is valid (environment %s, %d custom environment(s))",
			bold(env.Name), len(cfg.Environments))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
