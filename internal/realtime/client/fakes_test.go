package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errSocketClosed = errors.New("socket closed")

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type fakeSocket struct {
	incoming chan []byte
	closed   chan struct{}
	expired  chan struct{}
	once     sync.Once

	mu          sync.Mutex
	writes      [][]byte
	pongs       []string
	deadlines   []time.Time
	pingHandler func(string) error
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		incoming: make(chan []byte, 16),
		closed:   make(chan struct{}),
		expired:  make(chan struct{}),
	}
}

func (s *fakeSocket) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-s.incoming:
		return websocket.TextMessage, frame, nil
	case <-s.expired:
		return 0, nil, timeoutError{}
	case <-s.closed:
		return 0, nil, errSocketClosed
	}
}

func (s *fakeSocket) WriteControl(messageType int, data []byte, _ time.Time) error {
	select {
	case <-s.closed:
		return websocket.ErrCloseSent
	default:
	}
	if messageType == websocket.PongMessage {
		s.mu.Lock()
		s.pongs = append(s.pongs, string(data))
		s.mu.Unlock()
	}
	return nil
}

func (s *fakeSocket) SetReadDeadline(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines = append(s.deadlines, t)
	return nil
}

func (s *fakeSocket) SetPingHandler(h func(string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingHandler = h
}

// ping delivers a control ping the way the websocket reader would.
func (s *fakeSocket) ping(appData string) error {
	s.mu.Lock()
	h := s.pingHandler
	s.mu.Unlock()
	if h == nil {
		return errors.New("no ping handler installed")
	}
	return h(appData)
}

// expire makes the pending read fail as if the read deadline passed.
func (s *fakeSocket) expire() {
	close(s.expired)
}

func (s *fakeSocket) deadlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deadlines)
}

func (s *fakeSocket) lastDeadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deadlines) == 0 {
		return time.Time{}
	}
	return s.deadlines[len(s.deadlines)-1]
}

func (s *fakeSocket) pongWrites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pongs...)
}

func (s *fakeSocket) WriteMessage(messageType int, data []byte) error {
	select {
	case <-s.closed:
		return errSocketClosed
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, append([]byte(nil), data...))
	return nil
}

func (s *fakeSocket) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSocket) textWrites() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.writes...)
}

// fakeDialer hands out queued results; once the queue is empty every dial fails.
type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	calls   int
}

type dialResult struct {
	socket *fakeSocket
	err    error
}

func (d *fakeDialer) push(results ...dialResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, results...)
}

func (d *fakeDialer) Dial(context.Context, string, http.Header) (Socket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.results) == 0 {
		return nil, errors.New("connection refused")
	}
	next := d.results[0]
	d.results = d.results[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.socket, nil
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// fakeClock records scheduled callbacks instead of running them.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, 0, len(c.timers))
	for _, t := range c.timers {
		out = append(out, t.delay)
	}
	return out
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

func (c *fakeClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
