package session

import (
	"os"

	"github.com/huddlehq/huddle/internal/config"
)

const (
	DefaultSessionName = "main"
	// EnvSession names the session when no --session flag is given.
	EnvSession = "HUDDLE_SESSION"
)

// Resolve picks the session name: the --session flag, then $HUDDLE_SESSION,
// then default_session from config.toml, then "main".
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv(EnvSession); env != "" {
		return env
	}
	if cfg, err := config.LoadOrEmpty(ConfigPath()); err == nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	return DefaultSessionName
}
