package aad

import (
	"errors"
	"fmt"

	"github.com/arneg82/migAz/internal/core"
)

// ErrPromptDismissed is returned by a Prompter when the user closed the prompt.
// The client reports this as an empty result, not as a failure.
var ErrPromptDismissed = errors.New("device code prompt dismissed")

// IdentityMismatchError is returned when a required identity was requested but
// a different user signed in.
type IdentityMismatchError struct {
	Required string
	Actual   string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("signed-in user '%s' does not match required user '%s'",
		core.RedactIdentity(e.Actual), core.RedactIdentity(e.Required))
}
