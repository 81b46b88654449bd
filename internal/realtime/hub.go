package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type HubConfig struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:     64,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     30 * time.Second,
		MaxMessageSize: 8 << 10,
	}
}

func (c HubConfig) normalized() HubConfig {
	def := DefaultHubConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	if c.WriteWait <= 0 {
		c.WriteWait = def.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = def.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	return c
}

// Hub is the registry of live connections in this process, keyed by user.
// A user may hold several sessions at once.
type Hub struct {
	cfg HubConfig
	log *zap.Logger
	now func() time.Time

	mu     sync.RWMutex
	users  map[uuid.UUID]map[string]*Conn
	closed bool
}

func NewHub(cfg HubConfig, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		cfg:   cfg.normalized(),
		log:   log,
		now:   time.Now,
		users: make(map[uuid.UUID]map[string]*Conn),
	}
}

// Serve attaches an upgraded socket for userID and blocks until it closes.
func (h *Hub) Serve(userID uuid.UUID, ws *websocket.Conn) {
	conn := newConn(userID, ws, h.cfg, h.log)
	if !h.Register(conn) {
		conn.Close()
		return
	}
	defer h.Unregister(conn)

	go conn.writeLoop()

	hello, err := NewEnvelope(TypeConnection, map[string]string{
		"connection_id": conn.ID,
		"user_id":       userID.String(),
	}, h.now())
	if err == nil {
		if frame, err := hello.Encode(); err == nil {
			_ = conn.Send(frame)
		}
	}

	conn.readLoop()
	conn.closeWith(websocket.CloseNormalClosure, "")
}

func (h *Hub) Register(conn *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	sessions, ok := h.users[conn.UserID]
	if !ok {
		sessions = make(map[string]*Conn)
		h.users[conn.UserID] = sessions
	}
	sessions[conn.ID] = conn
	h.log.Debug("realtime connection attached",
		zap.String("user_id", conn.UserID.String()),
		zap.String("conn_id", conn.ID),
	)
	return true
}

func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.users[conn.UserID]
	if !ok {
		return
	}
	delete(sessions, conn.ID)
	if len(sessions) == 0 {
		delete(h.users, conn.UserID)
	}
}

// Deliver hands frame to every live session of userID and returns how many
// accepted it. An offline user is not an error.
func (h *Hub) Deliver(userID uuid.UUID, frame []byte) int {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.users[userID]))
	for _, conn := range h.users[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(frame); err != nil {
			h.log.Warn("realtime delivery failed",
				zap.String("user_id", userID.String()),
				zap.String("conn_id", conn.ID),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}
	return delivered
}

// Online reports the number of live sessions for userID.
func (h *Hub) Online(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Close detaches and closes every connection. Later registrations are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := make([]*Conn, 0)
	for _, sessions := range h.users {
		for _, conn := range sessions {
			all = append(all, conn)
		}
	}
	h.users = make(map[uuid.UUID]map[string]*Conn)
	h.mu.Unlock()

	for _, conn := range all {
		conn.Close()
	}
}
