package domain

import (
	"fmt"
	"strings"
)

// FailOn controls which issue severities block a close.
type FailOn string

const (
	FailOnError FailOn = "ERROR"
	FailOnWarn  FailOn = "WARN"
	FailOnNever FailOn = "NEVER"
)

// ParseFailOn normalizes and validates the configured strictness. An empty
// value defaults to ERROR; anything outside the closed set is a configuration
// error and must be rejected before any dataset is read.
func ParseFailOn(raw string) (FailOn, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return FailOnError, nil
	}
	switch FailOn(normalized) {
	case FailOnError, FailOnWarn, FailOnNever:
		return FailOn(normalized), nil
	}
	return "", fmt.Errorf("fail_on must be one of ERROR, WARN, NEVER; got %q", raw)
}

// ClosePolicy is the immutable per-run strictness configuration.
type ClosePolicy struct {
	FailOn FailOn
}
