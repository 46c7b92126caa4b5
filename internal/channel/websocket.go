package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"BtcPulse/internal/domain/models"
	"BtcPulse/pkg/logger"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 64
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	out  chan []byte
}

// WSHub broadcasts alerts to connected dashboard clients. A slow client
// gets dropped rather than blocking the broadcast.
type WSHub struct {
	logger  *logger.Logger
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewWSHub creates the websocket broadcast hub.
func NewWSHub(lgr *logger.Logger) *WSHub {
	return &WSHub{
		logger:  lgr,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *WSHub) Name() string { return "websocket" }

func (h *WSHub) Send(_ context.Context, a *models.Alert) (bool, error) {
	return h.broadcast(map[string]interface{}{"type": "alert", "alert": a})
}

func (h *WSHub) SendComposite(_ context.Context, s *models.CompositeSignal) (bool, error) {
	return h.broadcast(map[string]interface{}{"type": "composite", "composite": s})
}

func (h *WSHub) broadcast(record interface{}) (bool, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return false, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.out <- b:
		default:
			// client too slow, skip; the writer loop will reap it on close
		}
	}
	return true, nil
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the client with the hub.
func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logger.Error(err))
		return
	}

	c := &wsClient{conn: conn, out: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *WSHub) writeLoop(c *wsClient) {
	for msg := range c.out {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
}

// readLoop discards inbound frames and detects disconnects.
func (h *WSHub) readLoop(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *WSHub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.out)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}
