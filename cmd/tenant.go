package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arneg82/migAz/internal/cliconfig"
	"github.com/arneg82/migAz/internal/core"
)

var tenantAddDefault bool

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenant aliases",
	Long: `Tenant aliases are stored per environment in the user's CLI config
($HOME/.migaz/config.json, or $MIGAZ_CLI_CONFIG). They can be used wherever a
tenant ID is accepted.`,
}

var tenantAddCmd = &cobra.Command{
	Use:     "add <alias> <tenant-id>",
	Short:   "Add or replace a tenant alias",
	Example: `  migaz tenant add contoso 11111111-1111-1111-1111-111111111111 --default`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		alias := args[0]
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("parsing tenant ID '%s': %w", args[1], err)
		}

		env, cli, err := loadTenantState()
		if err != nil {
			return err
		}
		if err := cli.AddTenant(env.Name, alias, id); err != nil {
			return err
		}
		if tenantAddDefault {
			if err := cli.SetDefaultTenant(env.Name, alias); err != nil {
				return err
			}
		}
		if err := cliconfig.Save(cli); err != nil {
			return logError(err, "could not save tenant alias")
		}

		logSuccess("added tenant %s (%s) to %s", bold(alias), id, env.Name)
		return nil
	},
}

var tenantListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the tenant aliases of the environment",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cli, err := loadTenantState()
		if err != nil {
			return err
		}

		tenants := cli.ListTenants(env.Name)
		if len(tenants) == 0 {
			log.Info().Msgf("No tenant aliases for %s", env.Name)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"", "Alias", "Tenant ID", "Authority"})
		for _, tenant := range tenants {
			marker := ""
			if tenant.Default {
				marker = greenCheck
			}
			t.AppendRow(table.Row{
				marker,
				bold(tenant.Alias),
				tenant.ID.String(),
				faint(env.TenantAuthority(tenant.ID.String())),
			})
		}

		s := table.StyleRounded
		s.Format.Header = text.FormatDefault
		t.SetStyle(s)
		t.Render()
		return nil
	},
}

var tenantRemoveCmd = &cobra.Command{
	Use:     "remove <alias>",
	Aliases: []string{"rm"},
	Short:   "Remove a tenant alias",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cli, err := loadTenantState()
		if err != nil {
			return err
		}
		if err := cli.RemoveTenant(env.Name, args[0]); err != nil {
			if errors.Is(err, cliconfig.ErrTenantNotFound) {
				return fmt.Errorf("no tenant alias '%s' in %s", args[0], env.Name)
			}
			return err
		}
		if err := cliconfig.Save(cli); err != nil {
			return logError(err, "could not save tenant aliases")
		}

		logSuccess("removed tenant %s from %s", bold(args[0]), env.Name)
		return nil
	},
}

var tenantDefaultCmd = &cobra.Command{
	Use:   "default [alias|tenant-id]",
	Short: "Set or clear the default tenant of the environment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, cli, err := loadTenantState()
		if err != nil {
			return err
		}
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		if err := cli.SetDefaultTenant(env.Name, ref); err != nil {
			return err
		}
		if err := cliconfig.Save(cli); err != nil {
			return logError(err, "could not save default tenant")
		}

		if ref == "" {
			logSuccess("cleared the default tenant of %s", env.Name)
		} else {
			logSuccess("default tenant of %s is now %s", env.Name, bold(ref))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tenantCmd)
	tenantCmd.AddCommand(tenantAddCmd, tenantListCmd, tenantRemoveCmd, tenantDefaultCmd)

	tenantAddCmd.Flags().BoolVar(&tenantAddDefault, "default", false, "Make this the default tenant")
}

func loadTenantState() (core.Environment, *cliconfig.CLIConfig, error) {
	cfg, err := f.LoadConfig()
	if err != nil {
		return core.Environment{}, nil, err
	}
	env, err := f.ResolveEnvironment(cfg)
	if err != nil {
		return core.Environment{}, nil, err
	}
	cli, err := cliconfig.Load()
	if err != nil {
		return core.Environment{}, nil, err
	}
	return env, cli, nil
}
