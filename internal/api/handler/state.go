package handler

import (
	"net/http"

	"github.com/mcoot/firgame/internal/api/response"
	"github.com/mcoot/firgame/internal/services/datastore"
)

// QueueStats exposes match queue counters
type QueueStats interface {
	Waiting() int
	Paired() int
}

// RoomStats exposes room counters
type RoomStats interface {
	Active() int
	Started() int
}

// StateHandler serves liveness and state endpoints
type StateHandler struct {
	queue QueueStats
	rooms RoomStats
	store datastore.StoreInterface
}

// NewStateHandler creates a new state handler
func NewStateHandler(queue QueueStats, rooms RoomStats, store datastore.StoreInterface) *StateHandler {
	return &StateHandler{
		queue: queue,
		rooms: rooms,
		store: store,
	}
}

// Hello handles GET /
func (h *StateHandler) Hello(w http.ResponseWriter, r *http.Request) {
	text(w, "Hello, World!")
}

// Alive handles GET /state
func (h *StateHandler) Alive(w http.ResponseWriter, r *http.Request) {
	text(w, "I'm fine")
}

// Health handles GET /api/v1/health
func (h *StateHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// State handles GET /api/v1/state
func (h *StateHandler) State(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.SnapshotUsers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	games, err := h.store.SnapshotGames(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.State{
		Status:         "ok",
		WaitingPlayers: h.queue.Waiting(),
		SessionsPaired: h.queue.Paired(),
		ActiveRooms:    h.rooms.Active(),
		RoomsStarted:   h.rooms.Started(),
		Users:          len(users),
		Games:          len(games),
	})
}

func text(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
