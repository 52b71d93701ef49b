package room

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/firgame/internal/conn"
	"github.com/mcoot/firgame/internal/dependencies/mocks"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/protocol"
	"github.com/mcoot/firgame/internal/services/board"
	"github.com/mcoot/firgame/internal/services/datastore"
	"github.com/mcoot/firgame/internal/testutil"
)

const waitFor = 2 * time.Second

// fakePlayer stands in for a connection actor
type fakePlayer struct {
	identity model.Identity
	inbound  chan conn.Message // what the player says
	outbound chan conn.Message // what the room sends
}

func newFakePlayer(name string) *fakePlayer {
	return &fakePlayer{
		identity: model.Identity{DisplayName: name, Rating: model.DefaultRating, Guest: true},
		inbound:  make(chan conn.Message, 16),
		outbound: make(chan conn.Message, 64),
	}
}

func (p *fakePlayer) player() Player {
	return Player{Identity: p.identity, Recv: p.inbound, Send: p.outbound}
}

// fakeRecorder captures records handed to the store
type fakeRecorder struct {
	records chan model.GameRecord
}

func (r *fakeRecorder) Enqueue(ctx context.Context, u datastore.Update) error {
	if g, ok := u.(datastore.GameUpdate); ok {
		r.records <- g.Record
	}
	return nil
}

// stateLog records observer notifications
type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) RoomStateChanged(id model.GameID, state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, state)
}

func (l *stateLog) snapshot() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

type RoomSuite struct {
	suite.Suite
	black    *fakePlayer
	white    *fakePlayer
	recorder *fakeRecorder
	states   *stateLog
	clock    *mocks.MockClock
	cancel   context.CancelFunc
	finished chan model.GameRecord
}

func TestRoomSuite(t *testing.T) {
	suite.Run(t, new(RoomSuite))
}

func (s *RoomSuite) SetupTest() {
	s.black = newFakePlayer("alice")
	s.white = newFakePlayer("bob")
	s.recorder = &fakeRecorder{records: make(chan model.GameRecord, 1)}
	s.states = &stateLog{}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.finished = make(chan model.GameRecord, 1)

	session := Session{
		Black:       s.black.player(),
		White:       s.white.player(),
		TimeControl: model.DefaultTimeControl(),
	}
	r := NewRoom("game-1", session, board.New(), s.recorder, s.clock, s.states, 16, testutil.NopLogger())

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go func() {
		s.finished <- r.Run(ctx)
	}()

	s.expect(s.black, model.StartResponse(model.SideBlack))
	s.expect(s.white, model.StartResponse(model.SideWhite))
}

func (s *RoomSuite) TearDownTest() {
	s.cancel()
}

// Helpers

func (s *RoomSuite) say(p *fakePlayer, frame string) {
	p.inbound <- conn.Text(frame)
}

func (s *RoomSuite) play(p *fakePlayer, x, y int) {
	s.say(p, fmt.Sprintf(`{"command":"Play","notation":{"is_black":false,"x":%d,"y":%d}}`, x, y))
}

func (s *RoomSuite) next(p *fakePlayer) conn.Message {
	select {
	case msg := <-p.outbound:
		return msg
	case <-time.After(waitFor):
		s.FailNow("timed out waiting for " + p.identity.DisplayName)
		return conn.Message{}
	}
}

func (s *RoomSuite) expect(p *fakePlayer, want model.Response) {
	msg := s.next(p)
	s.Require().False(msg.IsStop(), "expected %s, got Stop", want.Kind)
	got, err := protocol.DecodeResponse(msg.Payload())
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *RoomSuite) expectStop(p *fakePlayer) {
	s.True(s.next(p).IsStop(), "expected Stop for %s", p.identity.DisplayName)
}

func (s *RoomSuite) expectSilence(p *fakePlayer) {
	select {
	case msg := <-p.outbound:
		s.Failf("unexpected message", "%s got %q", p.identity.DisplayName, msg.Payload())
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *RoomSuite) record() model.GameRecord {
	select {
	case rec := <-s.recorder.records:
		return rec
	case <-time.After(waitFor):
		s.FailNow("game was never recorded")
		return model.GameRecord{}
	}
}

// Tests

func (s *RoomSuite) TestMovesAreRelayedToTheOpponent() {
	s.play(s.black, 3, 3)
	s.expect(s.white, model.OpponentPlayResponse(model.SideBlack, model.Coord{X: 3, Y: 3}))

	s.play(s.white, 4, 4)
	s.expect(s.black, model.OpponentPlayResponse(model.SideWhite, model.Coord{X: 4, Y: 4}))

	s.expectSilence(s.black)
	s.expectSilence(s.white)
}

func (s *RoomSuite) TestRejectedMovesProduceNothing() {
	// White out of turn, then Black off the board
	s.play(s.white, 0, 0)
	s.play(s.black, 9, 9)
	s.expectSilence(s.black)
	s.expectSilence(s.white)

	s.play(s.black, 0, 0)
	s.expect(s.white, model.OpponentPlayResponse(model.SideBlack, model.Coord{X: 0, Y: 0}))

	// Occupied
	s.play(s.white, 0, 0)
	s.expectSilence(s.black)
}

func (s *RoomSuite) TestFiveInARowWinsForBlack() {
	for i := 0; i < 4; i++ {
		s.play(s.black, i, 0)
		s.expect(s.white, model.OpponentPlayResponse(model.SideBlack, model.Coord{X: i, Y: 0}))
		s.play(s.white, i, 1)
		s.expect(s.black, model.OpponentPlayResponse(model.SideWhite, model.Coord{X: i, Y: 1}))
	}
	s.play(s.black, 4, 0)
	s.expect(s.white, model.OpponentPlayResponse(model.SideBlack, model.Coord{X: 4, Y: 0}))

	end := model.GameEndResponse(model.Win(model.SideBlack))
	s.expect(s.black, end)
	s.expect(s.white, end)
	s.expectStop(s.black)
	s.expectStop(s.white)

	rec := s.record()
	s.Equal(model.GameID("game-1"), rec.ID)
	s.Equal(model.Win(model.SideBlack), rec.Result)
	s.Len(rec.Moves, 9)
	s.Equal(model.Notation{Side: model.SideBlack, X: 4, Y: 0}, rec.Moves[8])
	s.Equal("alice", rec.Black.DisplayName)
	s.Equal("bob", rec.White.DisplayName)
	s.Equal(model.DefaultTimeControl(), rec.TimeControl)
}

func (s *RoomSuite) TestResignNotifiesBothSidesOnce() {
	s.say(s.white, `{"command":"Resign"}`)

	resign := model.Response{Kind: model.ResponseOpponentResign, Side: model.SideWhite}
	end := model.GameEndResponse(model.Resign(model.SideWhite))
	for _, p := range []*fakePlayer{s.black, s.white} {
		s.expect(p, resign)
		s.expect(p, end)
		s.expectStop(p)
		s.expectSilence(p)
	}

	rec := s.record()
	s.Equal(model.Resign(model.SideWhite), rec.Result)
	winner, ok := rec.Result.Winner()
	s.True(ok)
	s.Equal(model.SideBlack, winner)
}

func (s *RoomSuite) TestChatGoesToOpponentOnly() {
	s.say(s.black, `{"command":"Message","message":"good luck"}`)

	s.expect(s.white, model.Response{Kind: model.ResponseMessage, Text: "good luck"})
	s.expectSilence(s.black)
}

func (s *RoomSuite) TestDrawOfferAndAcceptAreRelayed() {
	s.say(s.black, `{"command":"OfferDraw"}`)
	s.expect(s.white, model.Response{Kind: model.ResponseOpponentOfferDraw})

	s.say(s.white, `{"command":"AcceptDraw"}`)
	s.expect(s.black, model.Response{Kind: model.ResponseOpponentAcceptDraw})
}

func (s *RoomSuite) TestMalformedFramesAreDropped() {
	s.say(s.black, `not json`)
	s.say(s.black, `{"command":"Undo"}`)
	s.expectSilence(s.white)

	s.play(s.black, 2, 2)
	s.expect(s.white, model.OpponentPlayResponse(model.SideBlack, model.Coord{X: 2, Y: 2}))
}

func (s *RoomSuite) TestDisconnectAbortsAndTellsTheRemainingSide() {
	s.white.inbound <- conn.Stop

	s.expect(s.black, model.GameEndResponse(model.Abort()))
	s.expectStop(s.black)
	s.expectStop(s.white)

	s.Equal(model.Abort(), s.record().Result)
}

func (s *RoomSuite) TestShutdownAbortsTheGame() {
	s.cancel()

	end := model.GameEndResponse(model.Abort())
	s.expect(s.black, end)
	s.expect(s.white, end)
	s.expectStop(s.black)
	s.expectStop(s.white)
	s.Equal(model.Abort(), s.record().Result)
}

func (s *RoomSuite) TestLifecycleIsObserved() {
	s.say(s.black, `{"command":"Resign"}`)
	s.record()

	select {
	case <-s.finished:
	case <-time.After(waitFor):
		s.FailNow("room did not exit")
	}
	s.Equal([]State{StateStarting, StateActive, StateEnding, StateTerminated}, s.states.snapshot())
}

func (s *RoomSuite) TestRecordTimestampsComeFromClock() {
	s.say(s.black, `{"command":"Resign"}`)

	rec := s.record()
	s.Equal(s.clock.Now(), rec.StartedAt)
	s.Equal(s.clock.Now(), rec.EndedAt)
}

func TestBacklogIsHandledBeforeLiveFrames(t *testing.T) {
	black, white := newFakePlayer("alice"), newFakePlayer("bob")
	seated := black.player()
	seated.Backlog = []conn.Message{
		conn.Text(`{"command":"Play","notation":{"is_black":true,"x":2,"y":2}}`),
		conn.Text(`{"command":"Message","message":"hi"}`),
	}
	black.inbound <- conn.Text(`{"command":"Message","message":"live"}`)

	recorder := &fakeRecorder{records: make(chan model.GameRecord, 1)}
	session := Session{Black: seated, White: white.player(), TimeControl: model.DefaultTimeControl()}
	r := NewRoom("game-1", session, board.New(), recorder, mocks.NewMockClock(time.Now()), nil, 16, testutil.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	want := []model.Response{
		model.StartResponse(model.SideWhite),
		model.OpponentPlayResponse(model.SideBlack, model.Coord{X: 2, Y: 2}),
		{Kind: model.ResponseMessage, Text: "hi"},
		{Kind: model.ResponseMessage, Text: "live"},
	}
	for _, w := range want {
		select {
		case msg := <-white.outbound:
			got, err := protocol.DecodeResponse(msg.Payload())
			require.NoError(t, err)
			assert.Equal(t, w, got)
		case <-time.After(waitFor):
			t.Fatalf("timed out waiting for %s", w.Kind)
		}
	}
}
