package room

import (
	"context"
	"log/slog"

	"github.com/mcoot/firgame/internal/conn"
	"github.com/mcoot/firgame/internal/dependencies/clock"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/protocol"
	"github.com/mcoot/firgame/internal/services/board"
	"github.com/mcoot/firgame/internal/services/datastore"
)

// Recorder accepts finished game records
type Recorder interface {
	Enqueue(ctx context.Context, u datastore.Update) error
}

// event is one item in the room's fan-in queue
type event struct {
	side       model.Side
	cmd        model.Command
	disconnect bool
}

// Room runs one session from Start to GameEnd. It owns the board and the
// game record; players only reach it through their forwarders.
type Room struct {
	id       model.GameID
	session  Session
	engine   board.ServiceInterface
	recorder Recorder
	clock    clock.Clock
	observer Observer
	logger   *slog.Logger

	state  State
	board  *model.BoardState
	record model.GameRecord

	events chan event
	done   chan struct{}
}

// NewRoom creates a room for session. Call Run to play it.
func NewRoom(
	id model.GameID,
	session Session,
	engine board.ServiceInterface,
	recorder Recorder,
	clock clock.Clock,
	observer Observer,
	bufferSize int,
	logger *slog.Logger,
) *Room {
	if observer == nil {
		observer = NopObserver{}
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Room{
		id:       id,
		session:  session,
		engine:   engine,
		recorder: recorder,
		clock:    clock,
		observer: observer,
		logger:   logger.With(slog.String("component", "room"), slog.String("game_id", string(id))),
		events:   make(chan event, bufferSize),
		done:     make(chan struct{}),
	}
}

// ID returns the game ID this room records under
func (r *Room) ID() model.GameID {
	return r.id
}

// Run plays the session to completion and returns the final record.
// Cancelling ctx aborts the game.
func (r *Room) Run(ctx context.Context) model.GameRecord {
	r.start()

	go r.forward(r.session.Black, model.SideBlack)
	go r.forward(r.session.White, model.SideWhite)

	result, notify := r.loop(ctx)
	r.finish(ctx, result, notify)
	return r.record
}

func (r *Room) start() {
	r.setState(StateStarting)
	r.board = r.engine.NewGame()
	r.record = model.GameRecord{
		ID:          r.id,
		Black:       r.session.Black.Identity,
		White:       r.session.White.Identity,
		TimeControl: r.session.TimeControl,
		StartedAt:   r.clock.Now(),
	}

	r.send(model.SideBlack, model.StartResponse(model.SideBlack))
	r.send(model.SideWhite, model.StartResponse(model.SideWhite))

	r.logger.Info("game started",
		slog.String("black", r.record.Black.DisplayName),
		slog.String("white", r.record.White.DisplayName),
	)
	r.setState(StateActive)
}

// loop handles events until the game has a result. It returns the result
// and the sides that should receive GameEnd.
func (r *Room) loop(ctx context.Context) (model.GameResult, []model.Side) {
	for {
		select {
		case ev := <-r.events:
			if ev.disconnect {
				r.logger.Info("player disconnected", slog.String("side", string(ev.side)))
				return model.Abort(), []model.Side{ev.side.Other()}
			}
			if result, over := r.handle(ev.cmd); over {
				return result, bothSides
			}
		case <-ctx.Done():
			r.logger.Info("game aborted by shutdown")
			return model.Abort(), bothSides
		}
	}
}

var bothSides = []model.Side{model.SideBlack, model.SideWhite}

// handle applies one command. It reports the result once the game is over.
func (r *Room) handle(cmd model.Command) (model.GameResult, bool) {
	other := cmd.Side.Other()

	switch cmd.Kind {
	case model.CommandPlay:
		status, err := r.engine.Play(r.board, cmd.Coord.X, cmd.Coord.Y, cmd.Side)
		if err != nil {
			r.logger.Debug("move rejected",
				slog.String("side", string(cmd.Side)),
				slog.Int("x", cmd.Coord.X),
				slog.Int("y", cmd.Coord.Y),
				slog.String("error", err.Error()),
			)
			return model.GameResult{}, false
		}
		r.record.Moves = append(r.record.Moves, model.Notation{Side: cmd.Side, X: cmd.Coord.X, Y: cmd.Coord.Y})
		r.send(other, model.OpponentPlayResponse(cmd.Side, cmd.Coord))

		switch {
		case status == board.StatusDraw:
			return model.Draw(), true
		case status.Terminal():
			winner, _ := status.Winner()
			return model.Win(winner), true
		}

	case model.CommandResign:
		resign := model.Response{Kind: model.ResponseOpponentResign, Side: cmd.Side}
		r.send(model.SideBlack, resign)
		r.send(model.SideWhite, resign)
		return model.Resign(cmd.Side), true

	case model.CommandMessage:
		r.send(other, model.Response{Kind: model.ResponseMessage, Text: cmd.Text})

	case model.CommandOfferDraw:
		r.send(other, model.Response{Kind: model.ResponseOpponentOfferDraw})

	case model.CommandAcceptDraw:
		r.send(other, model.Response{Kind: model.ResponseOpponentAcceptDraw})

	default:
		r.logger.Warn("unhandled command", slog.String("kind", string(cmd.Kind)))
	}
	return model.GameResult{}, false
}

func (r *Room) finish(ctx context.Context, result model.GameResult, notify []model.Side) {
	r.setState(StateEnding)
	r.record.Result = result
	r.record.EndedAt = r.clock.Now()

	end := model.GameEndResponse(result)
	for _, side := range notify {
		r.send(side, end)
	}

	close(r.done)
	r.session.Black.Send <- conn.Stop
	r.session.White.Send <- conn.Stop

	r.logger.Info("game ended",
		slog.String("result", result.String()),
		slog.Int("moves", len(r.record.Moves)),
		slog.String("board", r.board.String()),
	)

	if err := r.recorder.Enqueue(context.WithoutCancel(ctx), datastore.GameUpdate{Record: r.record}); err != nil {
		r.logger.Error("failed to record game", slog.String("error", err.Error()))
	}
	r.setState(StateTerminated)
}

// forward decodes one player's inbound messages into the shared event queue
func (r *Room) forward(p Player, side model.Side) {
	for _, msg := range p.Backlog {
		if !r.relay(msg, side) {
			return
		}
	}
	for {
		select {
		case msg := <-p.Recv:
			if !r.relay(msg, side) {
				return
			}
		case <-r.done:
			return
		}
	}
}

// relay pushes one inbound message as an event. It reports false once the
// player has disconnected.
func (r *Room) relay(msg conn.Message, side model.Side) bool {
	if msg.IsStop() {
		r.push(event{side: side, disconnect: true})
		return false
	}
	cmd, err := protocol.DecodeCommand(msg.Payload(), side)
	if err != nil {
		r.logger.Warn("dropping malformed command",
			slog.String("side", string(side)),
			slog.String("error", err.Error()),
		)
		return true
	}
	r.push(event{side: side, cmd: cmd})
	return true
}

func (r *Room) push(ev event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *Room) send(side model.Side, resp model.Response) {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		r.logger.Error("failed to encode response", slog.String("error", err.Error()))
		return
	}
	r.session.Player(side).Send <- conn.Data(data)
}

func (r *Room) setState(state State) {
	r.state = state
	r.observer.RoomStateChanged(r.id, state)
}
