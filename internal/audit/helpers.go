package audit

import (
	"fmt"
	"runtime"

	"github.com/arneg82/migAz/internal/buildinfo"
)

// UserAgent is sent with every request to the identity provider.
func UserAgent() string {
	return fmt.Sprintf("MigAz/%s (%s; %s/%s)",
		buildinfo.Version, buildinfo.CommitHash, runtime.GOOS, runtime.GOARCH)
}

// OutcomeOf maps an acquisition outcome to the audit vocabulary.
func OutcomeOf(ok bool, err error) string {
	switch {
	case err != nil:
		return "failure"
	case ok:
		return "success"
	default:
		return "empty"
	}
}
