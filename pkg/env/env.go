package env

import (
	"fmt"
	"log/slog"
	"strings"
)

type Mode string

const (
	Test  Mode = "test"
	Local Mode = "local"
	Dev   Mode = "dev"
	Prod  Mode = "prod"
)

// Parse accepts a mode name case-insensitively; an empty string yields Local.
func Parse(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Local, nil
	}
	m := Mode(s)
	if !m.Validate() {
		return "", fmt.Errorf("unknown mode %q, expected one of test|local|dev|prod", s)
	}
	return m, nil
}

func (e Mode) String() string {
	return string(e)
}

func (e Mode) Validate() bool {
	switch e {
	case Local, Test, Dev, Prod:
		return true
	default:
		return false
	}
}

// DevToolsEnabled reports whether debugging endpoints, such as the
// verification code lookup, may be exposed.
func (e Mode) DevToolsEnabled() bool {
	return e != Prod
}

func (e Mode) SlogLevel() slog.Level {
	switch e {
	case Test, Local, Dev:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
