package timeline

import (
	"slices"
	"time"
)

// Store is the ordered message list of a single chat.
//
// Revision changes whenever the visible content changes. Epoch changes only
// on server-confirmed local mutations, so a poll that started before the
// latest epoch can be recognised as stale. Store is not safe for concurrent
// use; the owner serialises access.
type Store struct {
	chatID   string
	msgs     []Message
	revision uint64
	epoch    uint64
}

// NewStore creates an empty store with no chat selected.
func NewStore() *Store {
	return &Store{}
}

// ChatID returns the chat the store currently holds.
func (s *Store) ChatID() string { return s.chatID }

// Revision returns the content revision.
func (s *Store) Revision() uint64 { return s.revision }

// Epoch returns the local mutation counter.
func (s *Store) Epoch() uint64 { return s.epoch }

// Len returns the number of messages held.
func (s *Store) Len() int { return len(s.msgs) }

// Reset empties the store and scopes it to chatID.
func (s *Store) Reset(chatID string) {
	s.chatID = chatID
	s.msgs = nil
	s.revision++
	s.epoch++
}

// Replace swaps the whole list for a server snapshot. Messages from other
// chats are dropped and duplicate ids keep their first occurrence.
func (s *Store) Replace(msgs []Message) {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ChatID != "" && m.ChatID != s.chatID {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		c := m.Clone()
		c.ChatID = s.chatID
		out = append(out, c)
	}
	s.msgs = out
	s.revision++
}

// Append adds a confirmed message. A message whose id is already present
// replaces the existing entry in place. Returns false when m belongs to
// another chat.
func (s *Store) Append(m Message) bool {
	if m.ChatID != s.chatID {
		return false
	}
	if i := s.Index(m.ID); i >= 0 {
		s.msgs[i] = m.Clone()
	} else {
		s.msgs = append(s.msgs, m.Clone())
	}
	s.touch()
	return true
}

// Update applies fn to the message with the given id.
func (s *Store) Update(id string, fn func(*Message)) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	m := s.msgs[i].Clone()
	fn(&m)
	m.ID = id
	m.ChatID = s.chatID
	s.msgs[i] = m
	s.touch()
	return true
}

// Remove drops the message with the given id.
func (s *Store) Remove(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.msgs = slices.Delete(s.msgs, i, i+1)
	s.touch()
	return true
}

// Clear drops every message after a confirmed server-side clear.
func (s *Store) Clear() {
	s.msgs = nil
	s.touch()
}

// Index returns the position of id, or -1.
func (s *Store) Index(id string) int {
	return slices.IndexFunc(s.msgs, func(m Message) bool { return m.ID == id })
}

// Find returns a copy of the message with the given id.
func (s *Store) Find(id string) (Message, bool) {
	i := s.Index(id)
	if i < 0 {
		return Message{}, false
	}
	return s.msgs[i].Clone(), true
}

// Messages returns a copy of the list in display order.
func (s *Store) Messages() []Message {
	out := make([]Message, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = m.Clone()
	}
	return out
}

// Pinned returns the pinned messages ordered by pin time. Messages without
// a pin time sort after timed ones in list order.
func (s *Store) Pinned() []Message {
	type entry struct {
		msg Message
		pos int
	}
	var pinned []entry
	for i, m := range s.msgs {
		if m.IsPinned {
			pinned = append(pinned, entry{msg: m.Clone(), pos: i})
		}
	}
	slices.SortStableFunc(pinned, func(a, b entry) int {
		return comparePinTime(a.msg.PinnedAt, b.msg.PinnedAt, a.pos, b.pos)
	})
	out := make([]Message, len(pinned))
	for i, e := range pinned {
		out[i] = e.msg
	}
	return out
}

func comparePinTime(a, b *time.Time, apos, bpos int) int {
	switch {
	case a != nil && b != nil && !a.Equal(*b):
		return a.Compare(*b)
	case a != nil && b == nil:
		return -1
	case a == nil && b != nil:
		return 1
	default:
		return apos - bpos
	}
}

func (s *Store) touch() {
	s.revision++
	s.epoch++
}
