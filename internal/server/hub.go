package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/huddlehq/huddle/internal/presence"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

type wsClient struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks websocket connections per user and pushes status_update
// frames when a user's first connection opens or last one closes.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*wsClient]struct{}
	online  map[string]struct{}

	broker   Broker
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHub(broker Broker, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*wsClient]struct{}),
		online:  make(map[string]struct{}),
		broker:  broker,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start subscribes the hub to the broker.
func (h *Hub) Start(ctx context.Context) error {
	return h.broker.Subscribe(ctx, h.deliver)
}

// Online returns the users with at least one open connection on any
// instance sharing the broker.
func (h *Hub) Online() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := make([]string, 0, len(h.online))
	for u := range h.online {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("user", userID), zap.Error(err))
		return
	}
	c := &wsClient{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}

	first, snapshot := h.register(c)
	for _, frame := range snapshot {
		c.send <- frame
	}
	go h.writePump(c)

	if first {
		h.publish(r.Context(), userID, presence.Online)
	}
	h.readPump(c)

	if h.unregister(c) {
		// The request context is done once the handler returns.
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		h.publish(ctx, userID, presence.Offline)
		cancel()
	}
}

// register adds c and returns whether it is the user's first connection
// plus the frames announcing everyone already online.
func (h *Hub) register(c *wsClient) (bool, [][]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*wsClient]struct{})
		h.clients[c.userID] = conns
	}
	conns[c] = struct{}{}

	var snapshot [][]byte
	for u := range h.online {
		if len(snapshot) == sendBuffer-1 {
			break
		}
		if frame, err := encodeStatus(u, presence.Online); err == nil {
			snapshot = append(snapshot, frame)
		}
	}
	return len(conns) == 1, snapshot
}

// unregister removes c and reports whether the user has no connection left.
func (h *Hub) unregister(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[c.userID]
	if _, ok := conns[c]; ok {
		delete(conns, c)
		close(c.send)
	}
	if len(conns) == 0 {
		delete(h.clients, c.userID)
		return true
	}
	return false
}

func (h *Hub) publish(ctx context.Context, userID string, st presence.Status) {
	evt := presence.Event{Type: presence.EventStatusUpdate, UserID: userID, Status: st}
	if err := h.broker.Publish(ctx, evt); err != nil {
		h.logger.Warn("publish presence failed", zap.String("user", userID), zap.Error(err))
	}
}

// deliver applies a broker event to the online set and pushes it to every
// local connection. Slow connections are dropped.
func (h *Hub) deliver(evt presence.Event) {
	frame, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if evt.Status == presence.Online {
		h.online[evt.UserID] = struct{}{}
	} else {
		delete(h.online, evt.UserID)
	}
	for user, conns := range h.clients {
		for c := range conns {
			select {
			case c.send <- frame:
			default:
				h.logger.Warn("dropping slow presence client", zap.String("user", user))
				delete(conns, c)
				close(c.send)
			}
		}
	}
}

func (h *Hub) readPump(c *wsClient) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeStatus(userID string, st presence.Status) ([]byte, error) {
	return json.Marshal(presence.Event{Type: presence.EventStatusUpdate, UserID: userID, Status: st})
}
