// Package presence merges pushed online/offline updates into a presence map.
package presence

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"

	"github.com/huddlehq/huddle/internal/bus"
	"go.uber.org/zap"
)

// Status is a user's reachability.
type Status string

const (
	Online  Status = "online"
	Offline Status = "offline"
)

// EventStatusUpdate is the only push event type the consumer acts on.
const EventStatusUpdate = "status_update"

// Entry is the last known presence of one user.
type Entry struct {
	UserID   string    `json:"userId"`
	Status   Status    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

// Event is a frame received on the presence channel.
type Event struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Status Status `json:"status"`
}

// Consumer holds the presence map. The last event per user wins and
// LastSeen is the local receipt time.
type Consumer struct {
	mu      sync.RWMutex
	entries map[string]Entry
	bus     *bus.Bus
	logger  *zap.Logger
	now     func() time.Time
}

// NewConsumer creates an empty presence map.
func NewConsumer(b *bus.Bus, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		entries: make(map[string]Entry),
		bus:     b,
		logger:  logger,
		now:     time.Now,
	}
}

// Apply merges one raw frame. Malformed frames are logged and skipped;
// frames of other types are ignored. Returns whether the map changed.
func (c *Consumer) Apply(raw []byte) bool {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		c.logger.Warn("skipping malformed presence frame", zap.Error(err), zap.Int("bytes", len(raw)))
		return false
	}
	if evt.Type != EventStatusUpdate {
		c.logger.Debug("ignoring presence frame", zap.String("type", evt.Type))
		return false
	}
	if evt.UserID == "" || (evt.Status != Online && evt.Status != Offline) {
		c.logger.Warn("skipping invalid status update",
			zap.String("user_id", evt.UserID), zap.String("status", string(evt.Status)))
		return false
	}

	entry := Entry{UserID: evt.UserID, Status: evt.Status, LastSeen: c.now()}
	c.mu.Lock()
	c.entries[evt.UserID] = entry
	c.mu.Unlock()

	c.bus.Emit(bus.KindPresenceChanged, entry)
	return true
}

// Consume applies frames until ctx is cancelled or frames is closed.
func (c *Consumer) Consume(ctx context.Context, frames <-chan []byte) {
	for {
		select {
		case raw, ok := <-frames:
			if !ok {
				return
			}
			c.Apply(raw)
		case <-ctx.Done():
			return
		}
	}
}

// Get returns the presence of one user.
func (c *Consumer) Get(userID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	return e, ok
}

// Snapshot returns a copy of the whole map.
func (c *Consumer) Snapshot() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}
