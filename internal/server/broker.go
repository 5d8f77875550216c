package server

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/huddlehq/huddle/internal/presence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PresenceChannel is the redis channel shared by every server instance.
const PresenceChannel = "huddle:presence"

// Broker distributes presence events between server instances.
type Broker interface {
	Publish(ctx context.Context, evt presence.Event) error
	// Subscribe delivers every published event to fn until ctx ends.
	Subscribe(ctx context.Context, fn func(presence.Event)) error
	Close() error
}

// LocalBroker delivers events within the process.
type LocalBroker struct {
	mu   sync.RWMutex
	subs []func(presence.Event)
}

func NewLocalBroker() *LocalBroker { return &LocalBroker{} }

func (b *LocalBroker) Publish(_ context.Context, evt presence.Event) error {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(evt)
	}
	return nil
}

func (b *LocalBroker) Subscribe(_ context.Context, fn func(presence.Event)) error {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
	return nil
}

func (b *LocalBroker) Close() error { return nil }

// RedisBroker fans presence out over redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	logger *zap.Logger
}

// ConnectRedis parses url and pings the server.
func ConnectRedis(ctx context.Context, url string, logger *zap.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisBroker(client, logger), nil
}

// NewRedisBroker wraps an existing client. Close closes the client.
func NewRedisBroker(client *redis.Client, logger *zap.Logger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{client: client, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, evt presence.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal presence event: %w", err)
	}
	return b.client.Publish(ctx, PresenceChannel, data).Err()
}

// Subscribe returns once the subscription is confirmed by redis.
func (b *RedisBroker) Subscribe(ctx context.Context, fn func(presence.Event)) error {
	pubsub := b.client.Subscribe(ctx, PresenceChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", PresenceChannel, err)
	}

	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt presence.Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("bad presence payload", zap.Error(err))
					continue
				}
				fn(evt)
			}
		}
	}()
	return nil
}

func (b *RedisBroker) Close() error { return b.client.Close() }
