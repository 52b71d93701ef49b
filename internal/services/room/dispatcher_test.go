package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/firgame/internal/conn"
	"github.com/mcoot/firgame/internal/dependencies/mocks"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/board"
	"github.com/mcoot/firgame/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	dispatcher *Dispatcher
	recorder   *fakeRecorder
	cancel     context.CancelFunc
	stopped    chan error
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.recorder = &fakeRecorder{records: make(chan model.GameRecord, 4)}
	s.dispatcher = NewDispatcher(
		DefaultConfig(),
		board.New(),
		s.recorder,
		mocks.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		nil,
		testutil.NopLogger(),
	)

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.stopped = make(chan error, 1)
	go func() {
		s.stopped <- s.dispatcher.Run(ctx)
	}()
}

func (s *DispatcherSuite) TearDownTest() {
	s.cancel()
}

func (s *DispatcherSuite) pair() (*fakePlayer, *fakePlayer) {
	black, white := newFakePlayer("black"), newFakePlayer("white")
	s.dispatcher.Sessions() <- Session{
		Black:       black.player(),
		White:       white.player(),
		TimeControl: model.DefaultTimeControl(),
	}
	return black, white
}

func (s *DispatcherSuite) TestEachSessionGetsItsOwnRoom() {
	b1, _ := s.pair()
	b2, _ := s.pair()

	s.Eventually(func() bool { return s.dispatcher.Active() == 2 }, waitFor, 10*time.Millisecond)
	s.Equal(2, s.dispatcher.Started())

	b1.inbound <- conn.Text(`{"command":"Resign"}`)
	b2.inbound <- conn.Text(`{"command":"Resign"}`)

	first := <-s.recorder.records
	second := <-s.recorder.records
	s.NotEqual(first.ID, second.ID)
	s.Eventually(func() bool { return s.dispatcher.Active() == 0 }, waitFor, 10*time.Millisecond)
}

func (s *DispatcherSuite) TestShutdownWaitsForRooms() {
	s.pair()
	s.Eventually(func() bool { return s.dispatcher.Active() == 1 }, waitFor, 10*time.Millisecond)

	s.cancel()

	select {
	case err := <-s.stopped:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(waitFor):
		s.FailNow("dispatcher did not stop")
	}
	s.Equal(0, s.dispatcher.Active())
	s.Equal(model.Abort(), (<-s.recorder.records).Result)
}

func TestSessionsQueuedAtShutdownAreAborted(t *testing.T) {
	const sessions = 10
	recorder := &fakeRecorder{records: make(chan model.GameRecord, sessions)}
	d := NewDispatcher(
		DefaultConfig(),
		board.New(),
		recorder,
		mocks.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		nil,
		testutil.NopLogger(),
	)

	var players []*fakePlayer
	for i := 0; i < sessions; i++ {
		black, white := newFakePlayer("black"), newFakePlayer("white")
		players = append(players, black, white)
		d.Sessions() <- Session{Black: black.player(), White: white.player(), TimeControl: model.DefaultTimeControl()}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, d.Run(ctx), context.Canceled)

	for _, p := range players {
		var last conn.Message
		for len(p.outbound) > 0 {
			last = <-p.outbound
		}
		assert.True(t, last.IsStop(), "%s was never stopped", p.identity.DisplayName)
	}
	assert.Equal(t, sessions, d.Started())
	assert.Len(t, recorder.records, sessions)
	for i := 0; i < sessions; i++ {
		assert.Equal(t, model.Abort(), (<-recorder.records).Result)
	}
}
