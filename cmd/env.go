package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:     "env",
	Aliases: []string{"environment"},
	Short:   "Show the known environments (clouds)",
}

var envListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List predefined and configured environments",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		current, err := f.ResolveEnvironment(cfg)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"", "Name", "Authority", "Directory", "Resource Manager"})

		// custom environments shadow predefined ones with the same name
		shadowed := make(map[string]bool)
		for _, env := range cfg.Environments {
			shadowed[strings.ToLower(env.Name)] = true
		}
		predefined := len(cfg.AllEnvironments()) - len(cfg.Environments)

		for idx, env := range cfg.AllEnvironments() {
			if idx < predefined && shadowed[strings.ToLower(env.Name)] {
				continue
			}
			marker := ""
			if env.Equal(current) {
				marker = greenCheck
			}
			name := bold(env.Name)
			if idx >= predefined {
				name += faint(" (custom)")
			}
			t.AppendRow(table.Row{marker, name, env.AuthorityURL, env.DefaultDirectory, env.ResourceManagerURL})
		}

		s := table.StyleRounded
		s.Format.Header = text.FormatDefault
		t.SetStyle(s)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envListCmd)
}
