package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/firgame/internal/api/handler"
	"github.com/mcoot/firgame/internal/api/middleware"
	"github.com/mcoot/firgame/internal/events"
	"github.com/mcoot/firgame/internal/services/datastore"
	"github.com/mcoot/firgame/internal/services/users"
)

// Matchmaker is the part of the match queue the HTTP layer uses
type Matchmaker interface {
	handler.Matchmaker
	handler.QueueStats
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	UserService *users.Service
	Store       datastore.StoreInterface
	Queue       Matchmaker
	Rooms       handler.RoomStats
	Events      *events.Hub
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	stateHandler := handler.NewStateHandler(cfg.Queue, cfg.Rooms, cfg.Store)
	userHandler := handler.NewUserHandler(cfg.UserService)
	gameHandler := handler.NewGameHandler(cfg.Store)
	connectHandler := handler.NewConnectHandler(cfg.Queue, cfg.UserService, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Events)

	// Common middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Plain endpoints
	r.HandleFunc("/", stateHandler.Hello).Methods(http.MethodGet)
	r.HandleFunc("/state", stateHandler.Alive).Methods(http.MethodGet)
	r.HandleFunc("/connect", connectHandler.Connect).Methods(http.MethodGet)
	r.HandleFunc("/getall", userHandler.GetAll).Methods(http.MethodGet)

	// Versioned API
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", stateHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/state", stateHandler.State).Methods(http.MethodGet)
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	api.HandleFunc("/users", userHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/users", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", userHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games", gameHandler.Import).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)

	return r
}
