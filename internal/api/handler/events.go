package handler

import (
	"net/http"

	"github.com/mcoot/firgame/internal/events"
)

// EventsHandler streams room lifecycle changes
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/events as a Server-Sent Events stream
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	events.ServeSSE(w, r, h.hub)
}
