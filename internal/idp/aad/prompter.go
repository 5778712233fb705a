package aad

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DeviceCode is what the user needs to complete an interactive sign-in.
type DeviceCode struct {
	UserCode                string
	VerificationURI         string
	VerificationURIComplete string
	ExpiresAt               time.Time

	Authority string
	Resource  string

	// LoginHint is the user the sign-in is expected to be for, if any.
	LoginHint string

	// Owner is the opaque UI owner handle from the prompt parameters.
	Owner any
}

// Prompter is the interactive surface. ShowDeviceCode must return promptly;
// the client polls the token endpoint afterwards.
type Prompter interface {
	ShowDeviceCode(ctx context.Context, code DeviceCode) error
}

type PrompterFunc func(ctx context.Context, code DeviceCode) error

func (f PrompterFunc) ShowDeviceCode(ctx context.Context, code DeviceCode) error {
	return f(ctx, code)
}

// WriterPrompter prints sign-in instructions to Out.
type WriterPrompter struct {
	Out io.Writer
}

func (w WriterPrompter) ShowDeviceCode(_ context.Context, code DeviceCode) error {
	fmt.Fprintln(w.Out, "============================================================")
	if code.LoginHint != "" {
		fmt.Fprintf(w.Out, "Sign in as: %s\n", code.LoginHint)
	}
	fmt.Fprintf(w.Out, "Your user code is: %s\n\n", code.UserCode)
	fmt.Fprintln(w.Out, "Please visit the following URL in your browser to sign in:")
	fmt.Fprintf(w.Out, "  %s\n", code.VerificationURI)
	if code.VerificationURIComplete != "" {
		fmt.Fprintln(w.Out, "\nOr use this direct link (includes code):")
		fmt.Fprintf(w.Out, "  %s\n", code.VerificationURIComplete)
	}
	if !code.ExpiresAt.IsZero() {
		fmt.Fprintf(w.Out, "\nThe code expires at %s.\n", code.ExpiresAt.Format(time.Kitchen))
	}
	fmt.Fprintln(w.Out, "============================================================")
	fmt.Fprintln(w.Out, "Waiting for sign-in...")
	return nil
}
