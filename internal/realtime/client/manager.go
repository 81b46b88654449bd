package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
)

const (
	defaultReadTimeout = 60 * time.Second
	controlWriteWait   = 10 * time.Second
)

var (
	ErrNoURL        = errors.New("realtime url is required")
	ErrDisconnected = errors.New("connection attempt cancelled by disconnect")
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnectScheduled
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnectScheduled:
		return "reconnect_scheduled"
	default:
		return "disconnected"
	}
}

// Handler consumes one inbound envelope. Handlers run on the read goroutine
// and must not block.
type Handler func(realtime.Envelope) error

type HandlerID uint64

type Config struct {
	URL         string
	Header      http.Header
	Backoff     Backoff
	DialTimeout time.Duration
	// ReadTimeout bounds the silence tolerated on an open socket. Every frame
	// and every server ping extends it; expiry closes the socket and feeds the
	// reconnect schedule.
	ReadTimeout time.Duration
	Dialer      Dialer
	AfterFunc   AfterFunc
	Logger      *zap.Logger
}

type registration struct {
	id      HandlerID
	handler Handler
}

// Manager owns one logical realtime connection. It moves through
// disconnected, connecting, connected and reconnect_scheduled; every socket
// and timer belongs to a generation so callbacks from a superseded one are
// ignored.
type Manager struct {
	url         string
	header      http.Header
	backoff     Backoff
	dialTimeout time.Duration
	readTimeout time.Duration
	dialer      Dialer
	afterFunc   AfterFunc
	log         *zap.Logger
	now         func() time.Time

	mu       sync.Mutex
	state    State
	gen      uint64
	socket   Socket
	timer    Timer
	attempts int
	lastRTT  time.Duration

	writeMu sync.Mutex

	handlersMu sync.RWMutex
	handlers   map[string][]registration
	nextID     HandlerID
}

func NewManager(cfg Config) (*Manager, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNoURL
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebsocketDialer{}
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = stdAfterFunc
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	m := &Manager{
		url:         cfg.URL,
		header:      cfg.Header.Clone(),
		backoff:     cfg.Backoff.normalized(),
		dialTimeout: cfg.DialTimeout,
		readTimeout: cfg.ReadTimeout,
		dialer:      cfg.Dialer,
		afterFunc:   cfg.AfterFunc,
		log:         cfg.Logger,
		now:         time.Now,
		handlers:    make(map[string][]registration),
	}
	m.On(realtime.TypePong, m.recordRoundTrip)
	return m, nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastRoundTrip is the latency measured by the most recent ping/pong pair.
func (m *Manager) LastRoundTrip() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRTT
}

// Connect opens the socket. It returns nil right away when a connection is
// already open or being opened. A failed dial is reported here once and then
// handed to the reconnect schedule. An explicit Connect also re-arms the
// schedule after the attempt cap was reached.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	m.stopTimerLocked()
	if m.state == StateDisconnected && m.attempts >= m.backoff.MaxAttempts {
		m.attempts = 0
	}
	gen := m.beginDialLocked()
	m.mu.Unlock()

	return m.dial(ctx, gen)
}

// Disconnect closes the socket and cancels a pending reconnect. It is safe to
// call at any time, including repeatedly.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	m.stopTimerLocked()
	sock := m.socket
	m.socket = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if sock != nil {
		m.writeMu.Lock()
		_ = sock.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		m.writeMu.Unlock()
		_ = sock.Close()
	}
}

// Send writes env when the socket is open. It never buffers: false means
// nothing was sent.
func (m *Manager) Send(env realtime.Envelope) bool {
	frame, err := env.Encode()
	if err != nil {
		m.log.Warn("refuse to send invalid envelope", zap.Error(err))
		return false
	}

	m.mu.Lock()
	sock := m.socket
	open := m.state == StateConnected && sock != nil
	m.mu.Unlock()
	if !open {
		return false
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := sock.WriteMessage(websocket.TextMessage, frame); err != nil {
		m.log.Debug("realtime send failed", zap.String("type", env.Type), zap.Error(err))
		return false
	}
	return true
}

// On registers handler for typ. Handlers for a type run in registration order.
func (m *Manager) On(typ string, handler Handler) HandlerID {
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()

	m.nextID++
	id := m.nextID
	m.handlers[typ] = append(m.handlers[typ], registration{id: id, handler: handler})
	return id
}

// Off removes the handler registered under id and reports whether it existed.
func (m *Manager) Off(typ string, id HandlerID) bool {
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()

	regs := m.handlers[typ]
	for i, reg := range regs {
		if reg.id != id {
			continue
		}
		next := make([]registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(m.handlers, typ)
		} else {
			m.handlers[typ] = next
		}
		return true
	}
	return false
}

func (m *Manager) beginDialLocked() uint64 {
	m.gen++
	m.state = StateConnecting
	return m.gen
}

func (m *Manager) dial(ctx context.Context, gen uint64) error {
	sock, err := m.dialer.Dial(ctx, m.url, m.header)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		if sock != nil {
			_ = sock.Close()
		}
		return ErrDisconnected
	}
	if err != nil {
		m.state = StateDisconnected
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return fmt.Errorf("dial realtime: %w", err)
	}
	m.socket = sock
	m.state = StateConnected
	m.attempts = 0
	m.mu.Unlock()

	m.log.Info("realtime connected", zap.String("url", m.url))
	go m.readLoop(gen, sock)

	m.Send(realtime.Envelope{Type: realtime.TypePing, Timestamp: m.now().UnixMilli()})
	return nil
}

func (m *Manager) readLoop(gen uint64, sock Socket) {
	extend := func() error {
		return sock.SetReadDeadline(m.now().Add(m.readTimeout))
	}
	sock.SetPingHandler(func(appData string) error {
		if err := extend(); err != nil {
			return err
		}
		err := sock.WriteControl(websocket.PongMessage, []byte(appData), m.now().Add(controlWriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	if err := extend(); err != nil {
		m.handleClose(gen, sock, err)
		return
	}

	for {
		messageType, frame, err := sock.ReadMessage()
		if err != nil {
			m.handleClose(gen, sock, err)
			return
		}
		_ = extend()
		if messageType != websocket.TextMessage {
			continue
		}
		m.dispatch(frame)
	}
}

func (m *Manager) handleClose(gen uint64, sock Socket, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.socket != sock {
		return
	}
	_ = sock.Close()
	m.socket = nil
	m.state = StateDisconnected
	m.log.Info("realtime connection closed", zap.Error(cause))
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single pending reconnect, replacing any
// earlier one, unless the attempt cap is reached.
func (m *Manager) scheduleReconnectLocked() {
	m.stopTimerLocked()
	if m.attempts >= m.backoff.MaxAttempts {
		m.state = StateDisconnected
		m.log.Warn("realtime reconnect attempts exhausted", zap.Int("attempts", m.attempts))
		return
	}

	delay := m.backoff.Delay(m.attempts)
	m.attempts++
	m.state = StateReconnectScheduled
	gen := m.gen
	m.timer = m.afterFunc(delay, func() { m.reconnect(gen) })
	m.log.Info("realtime reconnect scheduled",
		zap.Duration("delay", delay),
		zap.Int("attempt", m.attempts),
	)
}

func (m *Manager) reconnect(scheduledGen uint64) {
	m.mu.Lock()
	if scheduledGen != m.gen || m.state != StateReconnectScheduled {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	gen := m.beginDialLocked()
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.dialTimeout)
	defer cancel()
	if err := m.dial(ctx, gen); err != nil {
		m.log.Debug("realtime reconnect failed", zap.Error(err))
	}
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) dispatch(frame []byte) {
	env, err := realtime.Decode(frame)
	if err != nil {
		m.log.Warn("drop malformed realtime frame", zap.Error(err))
		return
	}

	m.handlersMu.RLock()
	regs := append([]registration(nil), m.handlers[env.Type]...)
	m.handlersMu.RUnlock()

	for _, reg := range regs {
		m.invoke(reg, env)
	}
}

func (m *Manager) invoke(reg registration, env realtime.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("realtime handler panicked",
				zap.String("type", env.Type),
				zap.Uint64("handler_id", uint64(reg.id)),
				zap.Any("panic", r),
			)
		}
	}()

	if err := reg.handler(env); err != nil {
		m.log.Warn("realtime handler failed",
			zap.String("type", env.Type),
			zap.Uint64("handler_id", uint64(reg.id)),
			zap.Error(err),
		)
	}
}

func (m *Manager) recordRoundTrip(env realtime.Envelope) error {
	if env.Timestamp <= 0 {
		return nil
	}
	rtt := m.now().Sub(time.UnixMilli(env.Timestamp))
	if rtt < 0 {
		return nil
	}
	m.mu.Lock()
	m.lastRTT = rtt
	m.mu.Unlock()
	return nil
}
