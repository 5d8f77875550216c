package model

import "github.com/huddlehq/huddle/internal/rpc"

// Notices remembers which daemon notice was already flashed. The daemon
// keeps a notice on the view until it is dismissed, so every reload
// returns it again.
type Notices struct {
	lastAt   int64
	lastText string
}

// Fresh reports whether n has not been seen before and marks it seen.
func (s *Notices) Fresh(n *rpc.Notice) bool {
	if n == nil {
		return false
	}
	if n.AtUnixMs == s.lastAt && n.Text == s.lastText {
		return false
	}
	s.lastAt, s.lastText = n.AtUnixMs, n.Text
	return true
}
