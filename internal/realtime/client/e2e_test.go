package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeffrey-enterN/entern-match/internal/realtime"
)

func TestManagerAgainstHub(t *testing.T) {
	hub := realtime.NewHub(realtime.DefaultHubConfig(), nil)
	defer hub.Close()
	userID := uuid.New()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(userID, ws)
	}))
	defer srv.Close()

	m, err := NewManager(Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	require.NoError(t, err)
	defer m.Disconnect()

	connected := make(chan struct{}, 1)
	matches := make(chan realtime.Envelope, 1)
	pongs := make(chan realtime.Envelope, 1)
	m.On(realtime.TypeConnection, func(realtime.Envelope) error {
		connected <- struct{}{}
		return nil
	})
	m.On(realtime.TypeNewMatch, func(env realtime.Envelope) error {
		matches <- env
		return nil
	})
	m.On(realtime.TypePong, func(env realtime.Envelope) error {
		pongs <- env
		return nil
	})

	require.NoError(t, m.Connect(context.Background()))

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("no connection envelope")
	}
	select {
	case env := <-pongs:
		assert.Positive(t, env.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("initial ping was not answered")
	}

	frame, err := realtime.Envelope{Type: realtime.TypeNewMatch, Payload: []byte(`{"match_id":"abc"}`)}.Encode()
	require.NoError(t, err)
	require.Equal(t, 1, hub.Deliver(userID, frame))

	select {
	case env := <-matches:
		assert.JSONEq(t, `{"match_id":"abc"}`, string(env.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("new_match was not dispatched")
	}

	m.Disconnect()
	assert.Equal(t, StateDisconnected, m.State())
	assert.False(t, m.Send(realtime.Envelope{Type: realtime.TypePing}))
}
