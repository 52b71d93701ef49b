package matchmaking

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mcoot/firgame/internal/conn"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/room"
)

// Config holds match queue settings
type Config struct {
	// Conn configures the connection actor started for each player
	Conn conn.Config
	// ReadyBuffer is how many upgraded players may wait to enter the queue
	ReadyBuffer int
	// BacklogSize caps the frames kept for a player who has no opponent yet;
	// later frames are dropped
	BacklogSize int
}

// DefaultConfig returns sensible defaults for the match queue
func DefaultConfig() Config {
	return Config{
		Conn:        conn.DefaultConfig(),
		ReadyBuffer: 16,
		BacklogSize: 16,
	}
}

// waiting is a player whose connection is live but who has no opponent yet.
// While waiting, the queue reads the player's inbound frames so that a
// hang-up is seen even when the peer keeps talking.
type waiting struct {
	conn    *conn.Connection
	player  room.Player
	limit   int
	logger  *slog.Logger
	backlog []conn.Message

	gone    chan struct{} // closed once the peer has hung up
	release chan struct{}
	held    chan struct{}
}

func newWaiting(c *conn.Connection, player room.Player, limit int, logger *slog.Logger) *waiting {
	w := &waiting{
		conn:   c,
		player: player,
		limit:  limit,
		logger: logger,
		gone:   make(chan struct{}),
	}
	w.hold()
	return w
}

// hold starts reading the player's inbound frames
func (w *waiting) hold() {
	w.release = make(chan struct{})
	w.held = make(chan struct{})
	go w.watch(w.release, w.held)
}

func (w *waiting) watch(release, held chan struct{}) {
	defer close(held)
	for {
		select {
		case msg := <-w.player.Recv:
			if msg.IsStop() {
				close(w.gone)
				return
			}
			if len(w.backlog) >= w.limit {
				w.logger.Warn("dropping frame from unpaired player", slog.Int("bytes", len(msg.Payload())))
				continue
			}
			w.backlog = append(w.backlog, msg)
		case <-release:
			return
		}
	}
}

// unhold stops reading so the inbound channel can be handed to a room
func (w *waiting) unhold() {
	close(w.release)
	<-w.held
}

func (w *waiting) hungUp() bool {
	select {
	case <-w.gone:
		return true
	default:
		return false
	}
}

// seat returns the player with everything said while waiting
func (w *waiting) seat() room.Player {
	p := w.player
	p.Backlog = w.backlog
	return p
}

// Queue pairs connected players first come, first served. The first of
// each pair plays Black.
type Queue struct {
	cfg      Config
	sessions chan<- room.Session
	logger   *slog.Logger

	ready   chan *waiting
	waiting atomic.Int64
	paired  atomic.Int64

	// lifetime bounds pending handshakes; cancelled when Run returns
	lifetime context.Context
	cancel   context.CancelFunc
}

// NewQueue creates a queue that hands matched sessions to sessions
func NewQueue(cfg Config, sessions chan<- room.Session, logger *slog.Logger) *Queue {
	if cfg.ReadyBuffer <= 0 {
		cfg.ReadyBuffer = DefaultConfig().ReadyBuffer
	}
	if cfg.BacklogSize <= 0 {
		cfg.BacklogSize = DefaultConfig().BacklogSize
	}
	lifetime, cancel := context.WithCancel(context.Background())
	return &Queue{
		cfg:      cfg,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "matchmaking")),
		ready:    make(chan *waiting, cfg.ReadyBuffer),
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// Register admits a connecting client. The call returns immediately; the
// client enters the queue once its handshake succeeds and is dropped if it
// fails.
func (q *Queue) Register(identity model.Identity, handshake Handshake) {
	go q.admit(identity, handshake)
}

func (q *Queue) admit(identity model.Identity, handshake Handshake) {
	logger := q.logger.With(slog.String("player", identity.DisplayName))

	stream, err := handshake.Await(q.lifetime)
	if err != nil {
		logger.Warn("handshake failed", slog.String("error", err.Error()))
		return
	}

	c := conn.New(stream, q.cfg.Conn, logger)
	recv, send := c.Start()
	w := newWaiting(c, room.Player{Identity: identity, Recv: recv, Send: send}, q.cfg.BacklogSize, logger)

	select {
	case q.ready <- w:
		logger.Debug("player ready", slog.String("remote", c.RemoteAddr()))
	case <-q.lifetime.Done():
		c.Stop()
	}
}

// Run owns the waiting list until ctx is done. Players still waiting at
// that point are disconnected.
func (q *Queue) Run(ctx context.Context) error {
	defer q.cancel()
	q.logger.Info("match queue started")

	var fifo []*waiting
	defer func() {
		for _, w := range fifo {
			w.conn.Stop()
		}
		q.waiting.Store(0)
	}()

	for {
		select {
		case w := <-q.ready:
			fifo = append(prune(fifo, q.logger), w)

			for len(fifo) >= 2 {
				black, white := fifo[0], fifo[1]
				fifo = fifo[2:]
				black.unhold()
				white.unhold()

				// Either player may have hung up since the last prune
				if black.hungUp() || white.hungUp() {
					var survivors []*waiting
					for _, p := range []*waiting{black, white} {
						if p.hungUp() {
							drop(p, q.logger)
							continue
						}
						p.hold()
						survivors = append(survivors, p)
					}
					fifo = append(survivors, fifo...)
					continue
				}

				session := room.Session{
					Black:       black.seat(),
					White:       white.seat(),
					TimeControl: model.DefaultTimeControl(),
				}
				q.waiting.Store(int64(len(fifo)))

				select {
				case q.sessions <- session:
					q.paired.Add(1)
					q.logger.Info("players paired",
						slog.String("black", session.Black.Identity.DisplayName),
						slog.String("white", session.White.Identity.DisplayName),
					)
				case <-ctx.Done():
					black.conn.Stop()
					white.conn.Stop()
					return ctx.Err()
				}
			}
			q.waiting.Store(int64(len(fifo)))

		case <-ctx.Done():
			q.logger.Info("match queue stopped", slog.Int("waiting", len(fifo)))
			return ctx.Err()
		}
	}
}

// Waiting reports how many players are waiting for an opponent
func (q *Queue) Waiting() int {
	return int(q.waiting.Load())
}

// Paired reports how many sessions the queue has produced
func (q *Queue) Paired() int {
	return int(q.paired.Load())
}

// prune drops players whose peer has already gone away
func prune(fifo []*waiting, logger *slog.Logger) []*waiting {
	alive := fifo[:0]
	for _, w := range fifo {
		if w.hungUp() {
			drop(w, logger)
			continue
		}
		alive = append(alive, w)
	}
	return alive
}

func drop(w *waiting, logger *slog.Logger) {
	logger.Info("dropping disconnected player",
		slog.String("player", w.player.Identity.DisplayName),
	)
	w.conn.Stop()
}
