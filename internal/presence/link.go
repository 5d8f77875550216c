package presence

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/huddlehq/huddle/internal/status"
	"go.uber.org/zap"
)

// Conn is the read side of a presence channel connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens the presence channel for a user.
type Dialer interface {
	Dial(ctx context.Context, userID string) (Conn, error)
}

// WSDialer dials <BaseURL>/ws/<userID> over a websocket.
type WSDialer struct {
	BaseURL string
	Dialer  *websocket.Dialer
}

// Dial implements Dialer.
func (d WSDialer) Dial(ctx context.Context, userID string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	endpoint := strings.TrimRight(d.BaseURL, "/") + "/ws/" + url.PathEscape(userID)
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return conn, nil
}

// Endpoint returns the websocket base URL. An explicit wsURL wins;
// otherwise the scheme of apiURL is mapped to ws or wss.
func Endpoint(apiURL, wsURL string) (string, error) {
	if wsURL != "" {
		return wsURL, nil
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// Link keeps one presence connection open for the life of the session,
// reconnecting after a fixed delay, and reports its state on the status
// machine.
type Link struct {
	dialer   Dialer
	userID   string
	consumer *Consumer
	machine  *status.Machine
	delay    time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLink creates a link for userID feeding consumer.
func NewLink(d Dialer, userID string, consumer *Consumer, machine *status.Machine, delay time.Duration, logger *zap.Logger) *Link {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Link{
		dialer:   d,
		userID:   userID,
		consumer: consumer,
		machine:  machine,
		delay:    delay,
		logger:   logger,
	}
}

// Start begins connecting in the background.
func (l *Link) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.loop(ctx)
	}()
}

// Stop closes the connection and waits for the loop to exit.
func (l *Link) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

func (l *Link) loop(ctx context.Context) {
	for {
		l.transition(status.Connecting, status.Booting, status.Reconnecting)
		conn, err := l.dialer.Dial(ctx, l.userID)
		if err == nil {
			l.logger.Info("presence channel connected", zap.String("user_id", l.userID))
			l.transition(status.Ready, status.Connecting)
			err = l.read(ctx, conn)
		}
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("presence channel down", zap.Error(err), zap.Duration("retry_in", l.delay))
		l.transition(status.Reconnecting, status.Connecting, status.Ready, status.Degraded)

		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) read(ctx context.Context, conn Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		if stop() {
			_ = conn.Close()
		}
	}()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		l.consumer.Apply(raw)
	}
}

func (l *Link) transition(to status.State, from ...status.State) {
	if l.machine == nil {
		return
	}
	l.machine.TransitionIf(to, from...)
}
