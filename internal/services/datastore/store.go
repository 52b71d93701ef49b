package datastore

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/storage"
)

// Update is one pending write to the store
type Update interface {
	isUpdate()
}

// UserUpdate appends a user record
type UserUpdate struct {
	User model.User
}

// GameUpdate appends a finished game record
type GameUpdate struct {
	Record model.GameRecord
}

func (UserUpdate) isUpdate() {}
func (GameUpdate) isUpdate() {}

// Config holds store settings
type Config struct {
	// QueueSize is the number of updates buffered before Enqueue blocks
	QueueSize int
}

// DefaultConfig returns sensible defaults for the store
func DefaultConfig() Config {
	return Config{QueueSize: 10}
}

// Store is the single-writer facade over a storage backend. Writes are
// queued and applied in order by Run; reads go straight to the backend,
// which returns copies.
type Store struct {
	backend storage.Storage
	logger  *slog.Logger

	queue   chan Update
	closing chan struct{}
	stopped chan struct{}

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup

	applied atomic.Int64
	failed  atomic.Int64
}

// New creates a Store over backend
func New(backend storage.Storage, cfg Config, logger *slog.Logger) *Store {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Store{
		backend: backend,
		logger:  logger.With(slog.String("component", "datastore")),
		queue:   make(chan Update, cfg.QueueSize),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Enqueue submits an update. It blocks while the queue is full and fails
// once the store is closed or ctx is done.
func (s *Store) Enqueue(ctx context.Context, u Update) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.ErrStoreClosed
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	select {
	case s.queue <- u:
		return nil
	case <-s.closing:
		return model.ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued updates one at a time until Close is called or ctx is
// done. Updates already queued at that point are still applied.
// Run must be called exactly once.
func (s *Store) Run(ctx context.Context) error {
	defer close(s.stopped)
	s.logger.Info("data store started")

	for {
		select {
		case u := <-s.queue:
			s.apply(ctx, u)
		case <-s.closing:
			s.settle(ctx)
			return nil
		case <-ctx.Done():
			s.Close()
			s.settle(context.WithoutCancel(ctx))
			return ctx.Err()
		}
	}
}

// Close stops accepting updates; Run drains what is queued and returns.
// Enqueue calls blocked on a full queue fail with ErrStoreClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closing)
	}
}

// settle keeps applying updates until no Enqueue call is in flight, then
// drains the queue. Only called once the store is closed.
func (s *Store) settle(ctx context.Context) {
	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()
	for {
		select {
		case u := <-s.queue:
			s.apply(ctx, u)
		case <-idle:
			s.drain(ctx)
			return
		}
	}
}

// Done is closed once Run has returned
func (s *Store) Done() <-chan struct{} {
	return s.stopped
}

// Applied reports how many updates reached the backend
func (s *Store) Applied() int64 {
	return s.applied.Load()
}

// Failed reports how many updates the backend rejected
func (s *Store) Failed() int64 {
	return s.failed.Load()
}

func (s *Store) drain(ctx context.Context) {
	for {
		select {
		case u := <-s.queue:
			s.apply(ctx, u)
		default:
			s.logger.Info("data store drained",
				slog.Int64("applied", s.applied.Load()),
				slog.Int64("failed", s.failed.Load()),
			)
			return
		}
	}
}

func (s *Store) apply(ctx context.Context, u Update) {
	var err error
	switch u := u.(type) {
	case UserUpdate:
		err = s.backend.SaveUser(ctx, &u.User)
		if err == nil {
			s.logger.Debug("user saved", slog.String("user_id", string(u.User.ID)))
		}
	case GameUpdate:
		err = s.backend.SaveGame(ctx, &u.Record)
		if err == nil {
			s.logger.Debug("game saved",
				slog.String("game_id", string(u.Record.ID)),
				slog.String("result", u.Record.Result.String()),
			)
		}
	default:
		s.logger.Error("unknown update type", slog.Any("update", u))
		s.failed.Add(1)
		return
	}

	if err != nil {
		s.failed.Add(1)
		s.logger.Error("failed to apply update", slog.String("error", err.Error()))
		return
	}
	s.applied.Add(1)
}

// Reads

// SnapshotUsers returns a copy of every user record
func (s *Store) SnapshotUsers(ctx context.Context) ([]model.User, error) {
	return s.backend.ListUsers(ctx)
}

// SnapshotGames returns a copy of every game record
func (s *Store) SnapshotGames(ctx context.Context) ([]model.GameRecord, error) {
	return s.backend.ListGames(ctx)
}

// FindUser returns the latest record for id
func (s *Store) FindUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.backend.GetUser(ctx, id)
}

// FindGame returns the record for id
func (s *Store) FindGame(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	return s.backend.GetGame(ctx, id)
}

// Interface for dependency injection
type StoreInterface interface {
	Enqueue(ctx context.Context, u Update) error
	SnapshotUsers(ctx context.Context) ([]model.User, error)
	SnapshotGames(ctx context.Context) ([]model.GameRecord, error)
	FindUser(ctx context.Context, id model.UserID) (*model.User, error)
	FindGame(ctx context.Context, id model.GameID) (*model.GameRecord, error)
}

var _ StoreInterface = (*Store)(nil)
