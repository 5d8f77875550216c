package timeline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Differ remembers the last snapshot seen for the active chat and reports
// whether a new snapshot differs from it.
type Differ struct {
	chatID string
	digest [sha256.Size]byte
	primed bool
}

// Changed compares msgs with the last recorded snapshot for chatID and
// records msgs as the new marker when they differ. A snapshot for a
// different chat than the recorded one always counts as changed.
func (d *Differ) Changed(chatID string, msgs []Message) (bool, error) {
	sum, err := Digest(msgs)
	if err != nil {
		return false, err
	}
	if d.primed && d.chatID == chatID && d.digest == sum {
		return false, nil
	}
	d.chatID = chatID
	d.digest = sum
	d.primed = true
	return true, nil
}

// Reset forgets the recorded snapshot.
func (d *Differ) Reset() {
	*d = Differ{}
}

// Digest hashes the canonical JSON encoding of msgs. A nil list and an
// empty list hash the same.
func Digest(msgs []Message) ([sha256.Size]byte, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return sha256.Sum256(raw), nil
}
