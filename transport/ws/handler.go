package ws

import (
	"context"
	"log/slog"
	"net/http"

	"chatline/auth"
	"chatline/runtime"

	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated HTTP requests to websocket sessions and
// hands them to the realtime core. Authentication happens here, before the
// core ever sees the connection.
type Handler struct {
	log        *slog.Logger
	router     *runtime.Router
	tokens     *auth.TokenIssuer
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewHandler(log *slog.Logger, router *runtime.Router, tokens *auth.TokenIssuer, allowedOrigin string, bufferSize int) *Handler {
	return &Handler{
		log:    log,
		router: router,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		bufferSize: bufferSize,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if cookie, err := r.Cookie("session"); err == nil {
			token = cookie.Value
		}
	}
	if _, err := h.tokens.ValidateToken(token); err != nil {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	conn := NewConn(socket, h.router, h.bufferSize, h.log)
	h.log.Debug("Connection opened", "conn", conn.ID())

	// The request context dies when ServeHTTP returns; the session outlives it.
	go conn.WritePump()
	go conn.ReadPump(context.Background())
}
