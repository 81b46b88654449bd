package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrConnClosed   = errors.New("connection closed")
	ErrSlowConsumer = errors.New("connection send buffer exceeded")
)

// Conn is one live websocket session of a user. Outbound frames go through a
// buffered channel drained by a single writer goroutine.
type Conn struct {
	ID     string
	UserID uuid.UUID

	ws   *websocket.Conn
	cfg  HubConfig
	log  *zap.Logger
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newConn(userID uuid.UUID, ws *websocket.Conn, cfg HubConfig, log *zap.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		ID:     id,
		UserID: userID,
		ws:     ws,
		cfg:    cfg,
		log:    log.With(zap.String("conn_id", id), zap.String("user_id", userID.String())),
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// Send enqueues frame for delivery. A full buffer closes the connection so a
// slow client cannot hold memory for everyone else.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		c.log.Warn("closing slow realtime consumer")
		c.closeWith(websocket.ClosePolicyViolation, "send buffer full")
		return ErrSlowConsumer
	}
}

func (c *Conn) Close() {
	c.closeWith(websocket.CloseGoingAway, "server shutdown")
}

// Done is closed once the connection is shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) closeWith(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		deadline := time.Now().Add(c.cfg.WriteWait)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.log.Debug("realtime write failed", zap.Error(err))
				c.closeWith(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.closeWith(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Conn) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}

// readLoop blocks until the peer goes away. Application-level ping envelopes
// are answered with a pong echoing the timestamp.
func (c *Conn) readLoop() {
	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		messageType, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("realtime read ended", zap.Error(err))
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		if messageType != websocket.TextMessage {
			continue
		}

		env, err := Decode(frame)
		if err != nil {
			c.log.Warn("drop malformed realtime frame", zap.Error(err))
			continue
		}

		switch env.Kind() {
		case KindPing:
			pong, err := Envelope{Type: TypePong, Timestamp: env.Timestamp}.Encode()
			if err == nil {
				_ = c.Send(pong)
			}
		case KindPong:
		default:
			c.log.Debug("ignore inbound realtime frame", zap.String("type", env.Type))
		}
	}
}
