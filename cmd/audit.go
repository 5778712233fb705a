package cmd

import (
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log of token requests",
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
