package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arneg82/migAz/internal/audit"
	"github.com/arneg82/migAz/internal/core"
)

var (
	tokenGetFlags     requestFlags
	tokenGetTenants   []string
	tokenGetShowToken bool
)

var tokenGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Acquire access tokens for one or more tenants",
	Long: `Acquires an access token for each given tenant, in order. The first sign-in
determines the user; every further tenant is requested for that same user.

Tenants are given as IDs or as aliases added with 'migaz tenant add'. Without
--tenant, the default tenant of the environment is used, or the default
directory if none is set.`,
	Example: `  # token for the default directory
  migaz token get

  # tokens for two tenants, signed in once
  migaz token get --tenant contoso --tenant 22222222-2222-2222-2222-222222222222

  # raw token for scripting
  migaz token get --tenant contoso --prompt never --show-token`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := core.ParsePromptPolicy(tokenGetFlags.prompt)
		if err != nil {
			return err
		}

		session, err := f.NewSession()
		if err != nil {
			return err
		}
		defer session.Close()

		resource, err := f.ResolveResource(session.Environment, tokenGetFlags.resource)
		if err != nil {
			return err
		}
		tenants, err := f.LoadTenants(session.Environment, tokenGetTenants)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stderr)
		t.AppendHeader(table.Row{"Tenant", "User", "Expires", "Fingerprint"})

		var failed bool
		for _, tenant := range tenants {
			label := tenant.Ref
			if label == "" {
				label = session.Provider.Context(tenant.ID).Authority()
			}

			res, err := session.Provider.GetToken(cmd.Context(), resource, tenant.ID, policy)
			switch {
			case errors.Is(err, core.ErrInteractionRequired):
				failed = true
				log.Error().Msgf("%s %s: sign-in required, run without '--prompt never'", redCross, label)
				continue
			case err != nil:
				failed = true
				_ = logError(err, "%s: token request failed", label)
				continue
			case !res.OK():
				failed = true
				log.Warn().Msgf("%s %s: no token (sign-in cancelled)", redCross, label)
				continue
			}

			if tokenGetShowToken {
				fmt.Println(res.Token.AccessToken)
			}
			timeLeft := time.Until(res.Token.ExpiresOn).Round(time.Minute)
			t.AppendRow(table.Row{
				bold(truncate(label, 48)),
				displayUser(res.Token.UserInfo),
				fmt.Sprintf("%s (%s)", res.Token.ExpiresOn.Format("15:04"), faint(timeLeft.String())),
				faint(audit.CalculateFingerprint(audit.BearerFingerprintType, res.Token.AccessToken)),
			})
		}

		if t.Length() > 0 {
			s := table.StyleRounded
			s.Format.Header = text.FormatDefault
			t.SetStyle(s)
			t.Render()
		}

		if recorder, ok := session.Auditor.(*audit.InMemoryAuditor); ok {
			entries, err := recorder.GetRecent(len(tenants))
			if err == nil {
				renderAuditEntries(os.Stderr, entries)
			}
		}

		if failed {
			return BeQuietError{}
		}
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenGetCmd)

	tokenGetFlags.bind(tokenGetCmd.Flags(), core.PromptAuto)
	tokenGetCmd.Flags().StringSliceVarP(&tokenGetTenants, "tenant", "t", nil,
		"Tenant ID or alias (repeatable)")
	tokenGetCmd.Flags().BoolVar(&tokenGetShowToken, "show-token", false,
		"Print the access tokens to stdout, one per line")
}

// printToken prints details of an acquired token to stderr.
func printToken(tok core.TokenResult, showToken bool) {
	out := os.Stderr
	fmt.Fprintln(out, bold("\n── Token ──"))
	fmt.Fprintf(out, "  %s:  %s\n", faint("Authority"), tok.Authority)
	fmt.Fprintf(out, "  %s:   %s\n", faint("Resource"), tok.Resource)
	if tok.TenantID != "" {
		fmt.Fprintf(out, "  %s:     %s\n", faint("Tenant"), tok.TenantID)
	}
	fmt.Fprintf(out, "  %s:    %s\n", faint("Expires"), tok.ExpiresOn.Format(time.RFC3339))
	fmt.Fprintf(out, "  %s: %s\n", faint("Fingerprint"),
		audit.CalculateFingerprint(audit.BearerFingerprintType, tok.AccessToken))
	if showToken {
		fmt.Println(tok.AccessToken)
	}
}
