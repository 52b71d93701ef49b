package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/matchmaking"
)

// Matchmaker admits upgraded connections into the match queue
type Matchmaker interface {
	Register(identity model.Identity, handshake matchmaking.Handshake)
}

// Identifier resolves who is connecting
type Identifier interface {
	Identify(ctx context.Context, id string) model.Identity
}

// ConnectHandler upgrades GET /connect to a WebSocket and queues the player
type ConnectHandler struct {
	queue    Matchmaker
	users    Identifier
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewConnectHandler creates a new connect handler
func NewConnectHandler(queue Matchmaker, users Identifier, logger *slog.Logger) *ConnectHandler {
	return &ConnectHandler{
		queue: queue,
		users: users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect handles GET /connect?id=<user>. The player is registered before the
// upgrade runs; a failed upgrade resolves the handshake with its error.
func (h *ConnectHandler) Connect(w http.ResponseWriter, r *http.Request) {
	identity := h.users.Identify(r.Context(), r.URL.Query().Get("id"))

	hs := matchmaking.NewHandshake()
	h.queue.Register(identity, hs)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		hs.Resolve(nil, err)
		return
	}
	hs.Resolve(ws, nil)

	h.logger.Info("client connected",
		slog.String("player", identity.DisplayName),
		slog.Bool("guest", identity.Guest),
		slog.String("remote", r.RemoteAddr),
	)
}
