package core

import "errors"

// ErrInteractionRequired is returned when PromptNever is used but no silent acquisition was possible.
var ErrInteractionRequired = errors.New("interaction required but prompt policy is 'never'")
