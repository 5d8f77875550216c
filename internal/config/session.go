package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Session is the per-session ~/.huddle/sessions/<name>/session.toml.
type Session struct {
	Server     Server     `toml:"server"`
	Profile    Profile    `toml:"profile"`
	Sync       Sync       `toml:"sync"`
	Presence   Presence   `toml:"presence"`
	Conference Conference `toml:"conference"`
	Metrics    Metrics    `toml:"metrics"`
}

type Server struct {
	APIURL         string   `toml:"api_url"`
	WSURL          string   `toml:"ws_url"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type Profile struct {
	UserID      string `toml:"user_id"`
	DisplayName string `toml:"display_name"`
}

type Sync struct {
	PollInterval Duration `toml:"poll_interval"`
	// DegradedAfter is the number of consecutive failed polls before the
	// daemon reports itself degraded.
	DegradedAfter int `toml:"degraded_after"`
}

type Presence struct {
	ReconnectDelay Duration `toml:"reconnect_delay"`
}

type Conference struct {
	Domain string `toml:"domain"`
	// OpenBrowser launches the system browser on the room URL.
	OpenBrowser bool `toml:"open_browser"`
}

type Metrics struct {
	Addr string `toml:"addr"`
}

// DefaultSession returns the settings used when session.toml is absent.
func DefaultSession() *Session {
	return &Session{
		Server: Server{
			APIURL:         "http://localhost:8000",
			RequestTimeout: Duration{10 * time.Second},
		},
		Sync: Sync{
			PollInterval:  Duration{3 * time.Second},
			DegradedAfter: 3,
		},
		Presence: Presence{
			ReconnectDelay: Duration{3 * time.Second},
		},
		Conference: Conference{
			Domain: "meet.guifi.net",
		},
	}
}

// LoadSession reads session settings over the defaults. A missing file
// yields the defaults.
func LoadSession(path string) (*Session, error) {
	cfg := DefaultSession()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// SaveSession writes session settings with 0600 permissions.
func SaveSession(path string, cfg *Session) error {
	return writeTOML(path, cfg)
}

// Validate checks the settings the daemon cannot run without.
func (s *Session) Validate() error {
	if s.Server.APIURL == "" {
		return errors.New("server.api_url is required")
	}
	if s.Profile.UserID == "" {
		return errors.New("profile.user_id is required")
	}
	if s.Sync.PollInterval.Duration <= 0 {
		return fmt.Errorf("sync.poll_interval must be positive, got %s", s.Sync.PollInterval)
	}
	return nil
}
