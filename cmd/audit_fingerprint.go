package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arneg82/migAz/internal/audit"
)

var (
	fingerprintType string
	fingerprintRaw  bool
)

var auditFingerprintCmd = &cobra.Command{
	Use:     "fingerprint [token]",
	Aliases: []string{"fp"},
	Short:   `Calculate the fingerprint of an access token`,
	Long: `Calculates the fingerprint of an access token. This is the value stored in the
audit log in the 'token_fingerprint' field, so a token can be matched to the
request that acquired it without the token itself being logged.`,
	Example: `  migaz audit fingerprint eyJ0eXAiOi...

  # from stdin
  migaz token get --show-token | migaz audit fingerprint -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string

		if args[0] != "-" {
			token = args[0]
		} else {
			log.Debug().Msg("Reading token from stdin")

			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read token from stdin: %w", err)
			}
			token = strings.TrimSpace(string(data))
		}

		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}

		fp := audit.CalculateFingerprint(fingerprintType, token)

		if fingerprintRaw {
			fmt.Println(fp)
		} else {
			fmt.Println("Type:       ", fingerprintType)
			fmt.Println("Fingerprint:", fp)
		}
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditFingerprintCmd)

	auditFingerprintCmd.Flags().StringVar(&fingerprintType, "type", audit.BearerFingerprintType,
		fmt.Sprintf("Token type (one of: %s)", strings.Join(audit.RegisteredFingerprinterTypes(), ", ")))
	auditFingerprintCmd.Flags().BoolVar(&fingerprintRaw, "raw", false,
		"Output only the fingerprint value without additional text")
}
