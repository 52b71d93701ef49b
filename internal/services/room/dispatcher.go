package room

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mcoot/firgame/internal/dependencies/clock"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/board"
)

// Config holds dispatcher settings
type Config struct {
	// QueueSize is how many matched sessions may wait for a room
	QueueSize int
	// RoomBuffer is the capacity of each room's command queue
	RoomBuffer int
}

// DefaultConfig returns sensible defaults for the dispatcher
func DefaultConfig() Config {
	return Config{
		QueueSize:  100,
		RoomBuffer: 16,
	}
}

// Dispatcher turns matched sessions into running rooms
type Dispatcher struct {
	cfg      Config
	engine   board.ServiceInterface
	recorder Recorder
	clock    clock.Clock
	observer Observer
	logger   *slog.Logger
	base     *slog.Logger

	sessions chan Session
	active   atomic.Int64
	started  atomic.Int64
	wg       sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	cfg Config,
	engine board.ServiceInterface,
	recorder Recorder,
	clock clock.Clock,
	observer Observer,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.RoomBuffer <= 0 {
		cfg.RoomBuffer = DefaultConfig().RoomBuffer
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Dispatcher{
		cfg:      cfg,
		engine:   engine,
		recorder: recorder,
		clock:    clock,
		observer: observer,
		logger:   logger.With(slog.String("component", "dispatcher")),
		base:     logger,
		sessions: make(chan Session, cfg.QueueSize),
	}
}

// Sessions is where the match queue hands over paired players
func (d *Dispatcher) Sessions() chan<- Session {
	return d.sessions
}

// Run starts a room for every session received until ctx is done. Sessions
// still queued at that point get a room that aborts at once, so every player
// is told the game ended. Run then waits for running rooms to finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started")
	for {
		select {
		case session := <-d.sessions:
			d.spawn(ctx, session)
		case <-ctx.Done():
			d.drain(ctx)
			d.wg.Wait()
			d.logger.Info("dispatcher stopped", slog.Int64("rooms_started", d.started.Load()))
			return ctx.Err()
		}
	}
}

// Active reports how many rooms are running
func (d *Dispatcher) Active() int {
	return int(d.active.Load())
}

// Started reports how many rooms have been created
func (d *Dispatcher) Started() int {
	return int(d.started.Load())
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case session := <-d.sessions:
			d.spawn(ctx, session)
		default:
			return
		}
	}
}

func (d *Dispatcher) spawn(ctx context.Context, session Session) {
	id := model.GameID(uuid.NewString())
	r := NewRoom(id, session, d.engine, d.recorder, d.clock, d.observer, d.cfg.RoomBuffer, d.base)

	d.active.Add(1)
	d.started.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.active.Add(-1)
		r.Run(ctx)
	}()
}
