package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	authsvc "github.com/Jeffrey-enterN/entern-match/internal/services/auth"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (authsvc.Identity, error)
}

// SocketServer takes ownership of an upgraded socket and blocks until it closes.
type SocketServer interface {
	Serve(userID uuid.UUID, ws *websocket.Conn)
}

type WSHandler struct {
	auth     Authenticator
	server   SocketServer
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewWSHandler builds the realtime upgrade endpoint. An empty origin list
// accepts any origin.
func NewWSHandler(auth Authenticator, server SocketServer, allowedOrigins []string, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[strings.ToLower(origin)] = struct{}{}
		}
	}

	return &WSHandler{
		auth:   auth,
		server: server,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				_, ok := allowed[strings.ToLower(origin)]
				return ok
			},
		},
	}
}

func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || h.server == nil {
		writeInternal(w, "REALTIME_UNAVAILABLE", "realtime endpoint is unavailable")
		return
	}

	token, ok := authsvc.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		token = strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	if token == "" {
		writeUnauthorized(w, "UNAUTHORIZED", "missing access token")
		return
	}

	identity, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		h.log.Debug("realtime auth failed", zap.Error(err))
		writeUnauthorized(w, "UNAUTHORIZED", "invalid access token")
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn("websocket upgrade failed",
			zap.String("user_id", identity.UserID.String()),
			zap.Error(err),
		)
		return
	}

	h.log.Info("realtime connection opened", zap.String("user_id", identity.UserID.String()))
	h.server.Serve(identity.UserID, ws)
	h.log.Info("realtime connection closed", zap.String("user_id", identity.UserID.String()))
}
