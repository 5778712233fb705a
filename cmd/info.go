package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arneg82/migAz/internal/audit"
	"github.com/arneg82/migAz/internal/buildinfo"
	"github.com/arneg82/migAz/internal/core"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the MigAz installation",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Debug().Msg("Showing local build info...")
		info := buildinfo.GetBuildInfo()
		printInfo(&info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printInfo(info *buildinfo.Info) {
	fmt.Println(bold("\n── MigAz Build Information ──"))
	fmt.Printf("  %s:    %s\n", faint("Version"), info.Version)
	fmt.Printf("  %s:     %s\n", faint("Commit"), info.CommitHash)
	fmt.Printf("  %s:         %s\n", faint("Go"), info.GoVersion)
	fmt.Printf("  %s:   %s\n", faint("Platform"), info.Platform)
	fmt.Printf("  %s: %s\n", faint("User-Agent"), audit.UserAgent())
	fmt.Printf("  %s:  %s\n", faint("Client ID"), core.ClientID)
}
