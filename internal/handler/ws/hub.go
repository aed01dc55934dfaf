package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FraudDash/internal/domain/models"
	xlogger "FraudDash/pkg/logger"
)

// MessageSnapshot is the type of the first frame a client receives.
const MessageSnapshot = "dashboard"

// Message is one frame pushed to clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Snapshotter renders the whole dashboard for a newly connected client.
type Snapshotter interface {
	View() models.DashboardView
}

type Config struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingPeriod     time.Duration // must stay below PongTimeout
	MaxMessageSize int64
	SendBuffer     int
	AllowOrigins   []string
}

func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4 * 1024,
		SendBuffer:     64,
	}
}

// Hub fans dashboard updates out to every connected WebSocket client.
// A client that cannot keep up is disconnected rather than slowing the others.
type Hub struct {
	cfg      Config
	snap     Snapshotter
	log      *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func NewHub(snap Snapshotter, cfg Config, l *xlogger.Logger) *Hub {
	def := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongTimeout {
		cfg.PingPeriod = cfg.PongTimeout * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if l == nil {
		l = xlogger.NewNop()
	}

	h := &Hub{
		cfg:     cfg,
		snap:    snap,
		log:     l.With("ws"),
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowOrigins) == 0 {
		return true
	}
	for _, o := range h.cfg.AllowOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Serve upgrades the request and blocks until the client goes away.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, h.cfg.SendBuffer)}
	if !h.add(cl) {
		_ = conn.Close()
		return nil
	}
	h.log.Debug("client connected", xlogger.String("client_id", cl.id), xlogger.String("remote", c.RealIP()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(cl)
	}()
	h.readPump(cl)
	h.remove(cl)
	<-done
	return nil
}

// add registers cl and queues the snapshot frame as its first message. Both
// happen under the hub lock, so no broadcast can fall between them.
func (h *Hub) add(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl.id] = cl
	if h.snap == nil {
		return true
	}
	frame, err := encode(MessageSnapshot, h.snap.View())
	if err != nil {
		h.log.Error("encode snapshot frame", xlogger.Error(err))
		return true
	}
	select {
	case cl.send <- frame:
	default:
	}
	return true
}

// remove drops cl and closes its send channel. Safe to call more than once.
func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl.id]; !ok {
		return
	}
	delete(h.clients, cl.id)
	close(cl.send)
}

// readPump discards client frames; it exists to process pongs and notice disconnects.
func (h *Hub) readPump(cl *client) {
	cl.conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("client read error", xlogger.String("client_id", cl.id), xlogger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.log.Debug("client write error", xlogger.String("client_id", cl.id), xlogger.Error(err))
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends a {type, data} frame to every client.
func (h *Hub) Broadcast(kind string, data interface{}) {
	frame, err := encode(kind, data)
	if err != nil {
		h.log.Error("encode websocket frame", xlogger.String("type", kind), xlogger.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, cl := range h.clients {
		select {
		case cl.send <- frame:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		h.log.Warn("dropping slow websocket client", xlogger.String("client_id", cl.id))
		h.remove(cl)
	}
}

// Len is the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, cl := range clients {
		close(cl.send)
	}
}

var errEmptyType = errors.New("websocket frame without type")

func encode(kind string, data interface{}) ([]byte, error) {
	if kind == "" {
		return nil, errEmptyType
	}
	return json.Marshal(Message{Type: kind, Data: data, Timestamp: time.Now().UTC()})
}
