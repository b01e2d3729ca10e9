package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/service"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxMsgSize    = 1 << 12 // 4 KB
	hubBufferSize = 256
	clientBufSize = 32
)

// wsEnvelope wraps every message pushed to observers.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// Hub fans service notifications out to connected WebSocket observers.
// Publish never blocks: when the broadcast buffer or a client falls behind,
// messages for it are dropped.
type Hub struct {
	log       *logger.Logger
	broadcast chan service.Notification

	mu      sync.Mutex
	clients map[chan service.Notification]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:       log,
		broadcast: make(chan service.Notification, hubBufferSize),
		clients:   make(map[chan service.Notification]struct{}),
	}
}

// Publish implements service.Notifier.
func (h *Hub) Publish(n service.Notification) {
	select {
	case h.broadcast <- n:
	default:
		if h.log != nil {
			h.log.Infow("ws_broadcast_dropped", "kind", n.Kind, "device_id", n.DeviceID)
		}
	}
}

// Run distributes broadcast notifications until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-h.broadcast:
			h.mu.Lock()
			for ch := range h.clients {
				select {
				case ch <- n:
				default: // slow client; drop for it
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) register() chan service.Notification {
	ch := make(chan service.Notification, clientBufSize)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(ch chan service.Notification) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *Handler) wsConnect(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "observer hub not available"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend the read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	events := h.hub.register()
	defer h.hub.unregister(events)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case n := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsEnvelope{Type: string(n.Kind), Data: n}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}
