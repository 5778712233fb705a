package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/arneg82/migAz/internal/core"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()

	greenCheck = color.GreenString("✔")
	redCross   = color.RedString("✘")
)

// BeQuietError signals that the failure was already reported to the user.
type BeQuietError struct{}

func (BeQuietError) Error() string {
	return "command failed"
}

func logSuccess(format string, args ...any) {
	log.Info().Msgf("%s %s", greenCheck, fmt.Sprintf(format, args...))
}

// logError reports err with context and returns a BeQuietError.
func logError(err error, format string, args ...any) error {
	log.Error().Err(err).Msgf("%s %s", redCross, fmt.Sprintf(format, args...))
	return BeQuietError{}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func displayUser(info *core.UserInfo) string {
	if info == nil {
		return faint("(unknown)")
	}
	name := info.DisplayableID
	if name == "" {
		name = info.UniqueID
	}
	full := info.GivenName + " " + info.FamilyName
	if full != " " {
		return fmt.Sprintf("%s (%s)", bold(name), full)
	}
	return bold(name)
}
