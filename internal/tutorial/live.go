package tutorial

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 16
)

// LiveMessage is pushed to websocket subscribers of a session
type LiveMessage struct {
	Type      string    `json:"type"`
	View      View      `json:"view"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	LiveMessageSnapshot   = "snapshot"
	LiveMessageTransition = "transition"
	LiveMessageClosed     = "closed"
)

// LiveHub fans session views out to websocket connections
type LiveHub struct {
	mu       sync.RWMutex
	conns    map[uuid.UUID]map[*liveConn]struct{}
	lastSeq  map[uuid.UUID]uint64
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type liveConn struct {
	id        string
	sessionID uuid.UUID
	conn      *websocket.Conn
	send      chan LiveMessage
	closeOnce sync.Once
}

func NewLiveHub(logger *zap.Logger, allowedOrigins []string) *LiveHub {
	return &LiveHub{
		conns:   make(map[uuid.UUID]map[*liveConn]struct{}),
		lastSeq: make(map[uuid.UUID]uint64),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Subscribe upgrades the request and streams the session's views until the
// client disconnects. The initial snapshot is sent immediately.
func (h *LiveHub) Subscribe(w http.ResponseWriter, r *http.Request, initial View) error {
	sessionID, err := uuid.Parse(initial.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &liveConn{
		id:        uuid.New().String(),
		sessionID: sessionID,
		conn:      ws,
		send:      make(chan LiveMessage, sendBuffer),
	}
	c.send <- LiveMessage{Type: LiveMessageSnapshot, View: initial, Timestamp: time.Now()}

	h.mu.Lock()
	if h.conns[sessionID] == nil {
		h.conns[sessionID] = make(map[*liveConn]struct{})
	}
	h.conns[sessionID][c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Live connection registered",
		zap.String("connection_id", c.id),
		zap.String("session_id", sessionID.String()))

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Publish sends a message to every subscriber of the session. Transitions
// older than one already published are discarded. Slow subscribers whose
// buffer is full are dropped.
func (h *LiveHub) Publish(sessionID uuid.UUID, msg LiveMessage) int {
	h.mu.Lock()
	if msg.Type == LiveMessageTransition {
		if msg.View.Seq <= h.lastSeq[sessionID] {
			h.mu.Unlock()
			return 0
		}
		h.lastSeq[sessionID] = msg.View.Seq
	}
	var slow []*liveConn
	sent := 0
	for c := range h.conns[sessionID] {
		select {
		case c.send <- msg:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow live connection", zap.String("connection_id", c.id))
		h.unregister(c)
	}
	return sent
}

// CloseSession notifies and disconnects all subscribers of a session
func (h *LiveHub) CloseSession(sessionID uuid.UUID, last View) {
	h.Publish(sessionID, LiveMessage{Type: LiveMessageClosed, View: last, Timestamp: time.Now()})

	h.mu.Lock()
	conns := make([]*liveConn, 0, len(h.conns[sessionID]))
	for c := range h.conns[sessionID] {
		conns = append(conns, c)
	}
	delete(h.lastSeq, sessionID)
	h.mu.Unlock()

	for _, c := range conns {
		h.unregister(c)
	}
}

// Count returns the number of subscribers of a session
func (h *LiveHub) Count(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// Close disconnects everyone
func (h *LiveHub) Close() {
	h.mu.RLock()
	var all []*liveConn
	for _, set := range h.conns {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.unregister(c)
	}
}

func (h *LiveHub) unregister(c *liveConn) {
	c.closeOnce.Do(func() {
		h.mu.Lock()
		if set, ok := h.conns[c.sessionID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.conns, c.sessionID)
			}
		}
		close(c.send)
		h.mu.Unlock()

		h.logger.Debug("Live connection unregistered", zap.String("connection_id", c.id))
	})
}

// readPump only services control frames; clients drive the tutorial over HTTP
func (h *LiveHub) readPump(c *liveConn) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Live connection read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *LiveHub) writePump(c *liveConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
