package controller

import "time"

// Level is the severity of a notice.
type Level string

const (
	Info  Level = "info"
	Warn  Level = "warn"
	Error Level = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level Level
	Text  string
	At    time.Time
}

// Expired reports whether the notice is older than ttl at now.
func (n Notice) Expired(now time.Time, ttl time.Duration) bool {
	return n.At.Add(ttl).Before(now)
}
