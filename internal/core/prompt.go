package core

import (
	"fmt"
	"strings"
)

// PromptPolicy controls whether the identity provider may show an interactive sign-in.
type PromptPolicy int

const (
	// PromptAuto uses cached credentials when possible and prompts otherwise.
	PromptAuto PromptPolicy = iota
	// PromptAlways forces an interactive sign-in.
	PromptAlways
	// PromptNever never prompts; acquisition fails if interaction would be needed.
	PromptNever
	// PromptRefreshSession prompts and asks the provider to refresh the session.
	PromptRefreshSession
)

var promptNames = map[PromptPolicy]string{
	PromptAuto:           "auto",
	PromptAlways:         "always",
	PromptNever:          "never",
	PromptRefreshSession: "refresh_session",
}

func (p PromptPolicy) String() string {
	if name, ok := promptNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PromptPolicy(%d)", int(p))
}

func (p PromptPolicy) IsValid() bool {
	_, ok := promptNames[p]
	return ok
}

// Interactive reports whether the policy skips cached credentials entirely.
func (p PromptPolicy) Interactive() bool {
	return p == PromptAlways || p == PromptRefreshSession
}

// ParsePromptPolicy parses a prompt policy name. Dashes and case are ignored.
func ParsePromptPolicy(s string) (PromptPolicy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch norm {
	case "":
		return PromptAuto, nil
	case "refreshsession":
		return PromptRefreshSession, nil
	}
	for p, name := range promptNames {
		if name == norm {
			return p, nil
		}
	}
	return PromptAuto, fmt.Errorf("unknown prompt policy '%s' (expected auto, always, never, refresh_session)", s)
}

// PromptParameters is passed through to the identity client unchanged.
type PromptParameters struct {
	Policy PromptPolicy

	// Owner is an opaque UI owner handle (e.g. a window or terminal) for the prompt surface.
	Owner any
}
