package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arneg82/migAz/internal/core"
)

var (
	loginFlags     requestFlags
	loginShowToken bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in against the environment's default directory",
	Long: `Signs in interactively against the default directory of the environment and
prints the signed-in user. Tokens are kept in memory only; use 'migaz token get'
to sign in and acquire tokens for one or more tenants in one go.`,
	Example: `  migaz login
  migaz login -e AzureChinaCloud --prompt auto`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := core.ParsePromptPolicy(loginFlags.prompt)
		if err != nil {
			return err
		}

		session, err := f.NewSession()
		if err != nil {
			return err
		}
		defer session.Close()

		resource, err := f.ResolveResource(session.Environment, loginFlags.resource)
		if err != nil {
			return err
		}

		log.Info().Msgf("Signing in to %s...", bold(session.Environment.Name))
		res, err := session.Provider.Login(cmd.Context(), resource, policy)
		if err != nil {
			return logError(err, "sign-in failed")
		}
		if !res.OK() {
			log.Warn().Msgf("%s sign-in was cancelled", redCross)
			return BeQuietError{}
		}

		logSuccess("signed in as %s", displayUser(res.Token.UserInfo))
		printToken(res.Token, loginShowToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginFlags.bind(loginCmd.Flags(), core.PromptAlways)
	loginCmd.Flags().BoolVar(&loginShowToken, "show-token", false, "Print the access token to stdout")
}
