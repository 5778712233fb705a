package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/arneg82/migAz/internal/idp/aad"
)

// consolePrompter prints the device code instructions with colors.
type consolePrompter struct {
	out io.Writer
}

func (p consolePrompter) ShowDeviceCode(_ context.Context, code aad.DeviceCode) error {
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, bold("── Sign-in required ──"))
	fmt.Fprintf(p.out, "  %s: %s\n", faint("Authority"), code.Authority)
	fmt.Fprintf(p.out, "  %s:  %s\n", faint("Resource"), code.Resource)
	if code.LoginHint != "" {
		fmt.Fprintf(p.out, "  %s:   %s\n", faint("Sign in"), bold(code.LoginHint))
	}
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "  Open %s and enter the code %s\n", cyan(code.VerificationURI), yellow(code.UserCode))
	if code.VerificationURIComplete != "" {
		fmt.Fprintf(p.out, "  or open %s\n", cyan(code.VerificationURIComplete))
	}
	if !code.ExpiresAt.IsZero() {
		fmt.Fprintf(p.out, "  %s\n", faint(fmt.Sprintf("The code expires in %s.", time.Until(code.ExpiresAt).Round(time.Minute))))
	}
	fmt.Fprintln(p.out)
	return nil
}
