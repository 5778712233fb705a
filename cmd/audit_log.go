package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arneg82/migAz/internal/audit"
	"github.com/arneg82/migAz/internal/config"
	"github.com/arneg82/migAz/internal/core"
)

var (
	auditLogLimit  int
	auditLogTenant string
)

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Display entries of the audit log file",
	Long: `Reads the audit log file configured under 'audit.path' and prints the most
recent token requests. Only file auditing can be inspected after the fact.`,
	Example: `  migaz audit log -c migaz.yaml -n 10
  migaz audit log -c migaz.yaml --tenant contoso`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		if !cfg.Audit.Enabled || cfg.Audit.Type != config.AuditTypeFile {
			return fmt.Errorf("file auditing is not enabled in the configuration")
		}

		var filter func(core.AuditEntry) bool
		if auditLogTenant != "" {
			env, err := f.ResolveEnvironment(cfg)
			if err != nil {
				return err
			}
			tenants, err := f.LoadTenants(env, []string{auditLogTenant})
			if err != nil {
				return err
			}
			filter = audit.ForTenant(tenants[0].ID.String())
		}

		entries, err := audit.ReadFile(cfg.Audit.Path, filter, auditLogLimit)
		if err != nil {
			return err
		}
		log.Debug().Msgf("Retrieved %d audit entries", len(entries))
		if len(entries) == 0 {
			log.Info().Msg("No audit entries found")
			return nil
		}

		renderAuditEntries(os.Stdout, entries)
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().IntVarP(&auditLogLimit, "limit", "n", 25, "Number of audit entries to show")
	auditLogCmd.Flags().StringVar(&auditLogTenant, "tenant", "", "Only show entries of this tenant (ID or alias)")
}

func renderAuditEntries(out io.Writer, entries []core.AuditEntry) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{
		"Time", "ID", "Action", "Tenant", "Prompt", "User", "Outcome", "Error",
	})

	for _, e := range entries {
		outcome := e.Outcome
		switch outcome {
		case "success":
			outcome = green(outcome)
		case "empty":
			outcome = yellow(outcome)
		default:
			outcome = red(outcome)
		}

		tenant := e.Tenant
		if tenant == "" {
			tenant = faint("(default)")
		}

		t.AppendRow(table.Row{
			e.Time.Format(time.RFC3339),
			faint(e.ID),
			e.Action,
			tenant,
			e.Prompt,
			e.User,
			outcome,
			truncate(e.Error, 60),
		})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}
