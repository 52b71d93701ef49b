package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/firgame/internal/config"
	"github.com/mcoot/firgame/internal/dependencies/clock"
	"github.com/mcoot/firgame/internal/dependencies/random"
	"github.com/mcoot/firgame/internal/events"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/board"
	"github.com/mcoot/firgame/internal/services/datastore"
	"github.com/mcoot/firgame/internal/services/matchmaking"
	"github.com/mcoot/firgame/internal/services/room"
	"github.com/mcoot/firgame/internal/services/users"
	"github.com/mcoot/firgame/internal/storage"
	badgerstorage "github.com/mcoot/firgame/internal/storage/badger"
	"github.com/mcoot/firgame/internal/storage/memory"
	redisstorage "github.com/mcoot/firgame/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
	StorageTypeBadger = config.StorageBadger
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Store   *datastore.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	BoardService *board.Service
	UserService  *users.Service
	Dispatcher   *room.Dispatcher
	Queue        *matchmaking.Queue
	Events       *events.Hub

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "badger")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// BadgerConfig holds database settings (required if StorageType is "badger")
	BadgerConfig *badgerstorage.Config

	// Component settings; zero values fall back to each package's defaults
	StoreConfig datastore.Config
	RoomConfig  room.Config
	QueueConfig matchmaking.Config
	UsersConfig users.Config

	// Observer receives room lifecycle changes in addition to the event hub (optional)
	Observer room.Observer
}

// ConfigFromEnv maps environment settings onto a factory Config
func ConfigFromEnv(env config.Config, logger *slog.Logger) Config {
	cfg := Config{
		Logger:      logger,
		StorageType: env.Storage,
		StoreConfig: datastore.Config{QueueSize: env.StoreBuffer},
		RoomConfig: room.Config{
			QueueSize:  env.DispatchBuffer,
			RoomBuffer: env.RoomBuffer,
		},
		QueueConfig: matchmaking.DefaultConfig(),
	}
	cfg.QueueConfig.Conn.BufferSize = env.ConnBuffer

	switch env.Storage {
	case StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = env.RedisURL
		cfg.RedisConfig = &redisCfg
	case StorageTypeBadger:
		badgerCfg := badgerstorage.DefaultConfig()
		badgerCfg.Path = env.BadgerPath
		cfg.BadgerConfig = &badgerCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg), nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeBadger:
		if cfg.BadgerConfig == nil {
			return nil, errors.New("BadgerConfig required when StorageType is badger")
		}
		return badgerstorage.New(*cfg.BadgerConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'badger'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(backend storage.Storage, clk clock.Clock, rnd random.Random, cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storeCfg := cfg.StoreConfig
	if storeCfg.QueueSize == 0 {
		storeCfg = datastore.DefaultConfig()
	}
	queueCfg := cfg.QueueConfig
	if queueCfg == (matchmaking.Config{}) {
		queueCfg = matchmaking.DefaultConfig()
	}
	usersCfg := cfg.UsersConfig
	if usersCfg == (users.Config{}) {
		usersCfg = users.DefaultConfig()
	}

	hub := events.NewHub(logger)
	var observer room.Observer = hub
	if cfg.Observer != nil {
		extra := cfg.Observer
		observer = room.ObserverFunc(func(id model.GameID, state room.State) {
			hub.RoomStateChanged(id, state)
			extra.RoomStateChanged(id, state)
		})
	}

	store := datastore.New(backend, storeCfg, logger)
	boardService := board.New()
	userService := users.New(store, clk, rnd, usersCfg)
	dispatcher := room.NewDispatcher(cfg.RoomConfig, boardService, store, clk, observer, logger)
	queue := matchmaking.NewQueue(queueCfg, dispatcher.Sessions(), logger)

	return &App{
		Storage:      backend,
		Store:        store,
		Clock:        clk,
		Random:       rnd,
		BoardService: boardService,
		UserService:  userService,
		Dispatcher:   dispatcher,
		Queue:        queue,
		Events:       hub,
		logger:       logger,
	}
}

// Run drives the match queue, the room dispatcher, the event hub and the data
// store until ctx is done. Rooms still running are aborted and recorded before
// the store drains and Run returns.
func (a *App) Run(ctx context.Context) error {
	go a.Events.Run()
	defer a.Events.Close()

	storeErr := make(chan error, 1)
	go func() {
		storeErr <- a.Store.Run(context.WithoutCancel(ctx))
	}()

	// The dispatcher outlives the queue so no session is handed over after
	// the dispatcher has drained
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		_ = a.Dispatcher.Run(dispatchCtx)
	}()

	_ = a.Queue.Run(ctx)
	stopDispatch()
	<-dispatched

	a.Store.Close()
	err := <-storeErr
	a.logger.Info("session core stopped")
	return err
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
