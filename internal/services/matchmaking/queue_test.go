package matchmaking

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/firgame/internal/conn"
	"github.com/mcoot/firgame/internal/model"
	"github.com/mcoot/firgame/internal/services/room"
	"github.com/mcoot/firgame/internal/testutil"
)

const waitFor = 2 * time.Second

// fakeStream is an in-process conn.Stream
type fakeStream struct {
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once
	eof      atomic.Bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		incoming: make(chan []byte, 8),
		closed:   make(chan struct{}),
	}
}

func (f *fakeStream) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-f.incoming:
		if !ok {
			f.eof.Store(true)
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, net.ErrClosed
	}
}

func (f *fakeStream) WriteMessage(int, []byte) error {
	if f.isClosed() {
		return net.ErrClosed
	}
	return nil
}

func (f *fakeStream) WriteControl(int, []byte, time.Time) error { return nil }
func (f *fakeStream) SetWriteDeadline(time.Time) error          { return nil }
func (f *fakeStream) RemoteAddr() net.Addr                       { return nil }

func (f *fakeStream) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeStream) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

type QueueSuite struct {
	suite.Suite
	sessions chan room.Session
	queue    *Queue
	cancel   context.CancelFunc
	stopped  chan error
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
	s.sessions = make(chan room.Session, 8)
	s.queue = NewQueue(DefaultConfig(), s.sessions, testutil.NopLogger())

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.stopped = make(chan error, 1)
	go func() {
		s.stopped <- s.queue.Run(ctx)
	}()
}

func (s *QueueSuite) TearDownTest() {
	s.cancel()
}

func identity(name string) model.Identity {
	return model.Identity{DisplayName: name, Rating: model.DefaultRating, Guest: true}
}

// arrive registers name with an already upgraded stream and waits until the
// queue has seen it
func (s *QueueSuite) arrive(name string, wantWaiting int) *fakeStream {
	stream := newFakeStream()
	hs := NewHandshake()
	hs.Resolve(stream, nil)
	s.queue.Register(identity(name), hs)
	s.Eventually(func() bool { return s.queue.Waiting() == wantWaiting }, waitFor, 5*time.Millisecond)
	return stream
}

func (s *QueueSuite) nextSession() room.Session {
	select {
	case session := <-s.sessions:
		return session
	case <-time.After(waitFor):
		s.FailNow("no session produced")
		return room.Session{}
	}
}

func (s *QueueSuite) TestPairsInArrivalOrder() {
	s.arrive("A", 1)
	s.arrive("B", 0)
	s.arrive("C", 1)
	s.arrive("D", 0)

	first := s.nextSession()
	s.Equal("A", first.Black.Identity.DisplayName)
	s.Equal("B", first.White.Identity.DisplayName)
	s.Equal(model.DefaultTimeControl(), first.TimeControl)

	second := s.nextSession()
	s.Equal("C", second.Black.Identity.DisplayName)
	s.Equal("D", second.White.Identity.DisplayName)

	s.Equal(2, s.queue.Paired())
}

func (s *QueueSuite) TestSinglePlayerWaits() {
	s.arrive("A", 1)

	select {
	case <-s.sessions:
		s.Fail("a lone player must not be paired")
	case <-time.After(50 * time.Millisecond):
	}
	s.Equal(1, s.queue.Waiting())
}

func (s *QueueSuite) TestFailedHandshakeNeverTakesASlot() {
	hs := NewHandshake()
	s.queue.Register(identity("X"), hs)
	hs.Resolve(nil, errors.New("bad upgrade"))

	s.arrive("A", 1)
	s.arrive("B", 0)

	session := s.nextSession()
	s.Equal("A", session.Black.Identity.DisplayName)
	s.Equal("B", session.White.Identity.DisplayName)
}

func (s *QueueSuite) TestHandshakeResolvedLaterStillQueues() {
	hs := NewHandshake()
	s.queue.Register(identity("slow"), hs)
	s.Equal(0, s.queue.Waiting())

	hs.Resolve(newFakeStream(), nil)
	s.Eventually(func() bool { return s.queue.Waiting() == 1 }, waitFor, 5*time.Millisecond)
}

func (s *QueueSuite) TestDisconnectedPlayerIsNotPaired() {
	gone := s.arrive("A", 1)
	close(gone.incoming)
	s.Eventually(gone.eof.Load, waitFor, 5*time.Millisecond)
	// Let the reader publish its Stop
	time.Sleep(20 * time.Millisecond)

	s.arrive("B", 1)
	s.Eventually(gone.isClosed, waitFor, 5*time.Millisecond)

	s.arrive("C", 0)
	session := s.nextSession()
	s.Equal("B", session.Black.Identity.DisplayName)
	s.Equal("C", session.White.Identity.DisplayName)
}

func (s *QueueSuite) TestPairedPlayersKeepTheirMessages() {
	a := s.arrive("A", 1)
	a.incoming <- []byte("early")
	s.arrive("B", 0)

	session := s.nextSession()
	s.Equal("early", string(s.firstMessage(session.Black).Payload()))

	session.Black.Send <- conn.Stop
	s.Eventually(a.isClosed, waitFor, 5*time.Millisecond)
}

func (s *QueueSuite) TestChattyPlayerWhoHangsUpIsNotPaired() {
	chatty := s.arrive("A", 1)
	go func() {
		for i := 0; i < 20; i++ {
			chatty.incoming <- []byte(`{"command":"Message","message":"anyone?"}`)
		}
		close(chatty.incoming)
	}()
	s.Eventually(chatty.eof.Load, waitFor, 5*time.Millisecond)
	// Let the reader publish its Stop
	time.Sleep(20 * time.Millisecond)

	s.arrive("B", 1)
	s.Eventually(chatty.isClosed, waitFor, 5*time.Millisecond)

	s.arrive("C", 0)
	session := s.nextSession()
	s.Equal("B", session.Black.Identity.DisplayName)
	s.Equal("C", session.White.Identity.DisplayName)
	s.Empty(session.Black.Backlog)
}

// firstMessage returns what p said first, whether it was read while waiting
// or is still on the connection
func (s *QueueSuite) firstMessage(p room.Player) conn.Message {
	if len(p.Backlog) > 0 {
		return p.Backlog[0]
	}
	select {
	case msg := <-p.Recv:
		return msg
	case <-time.After(waitFor):
		s.FailNow("message lost while queued")
		return conn.Message{}
	}
}

func (s *QueueSuite) TestShutdownDisconnectsWaitingPlayers() {
	a := s.arrive("A", 1)

	s.cancel()

	select {
	case err := <-s.stopped:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(waitFor):
		s.FailNow("queue did not stop")
	}
	s.Eventually(a.isClosed, waitFor, 5*time.Millisecond)
	s.Equal(0, s.queue.Waiting())
}

func TestAwaitHonoursContext(t *testing.T) {
	hs := NewHandshake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hs.Await(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Await err = %v, want context.Canceled", err)
	}
}

func TestResolveOnlyOnce(t *testing.T) {
	hs := NewHandshake()
	first := newFakeStream()
	hs.Resolve(first, nil)
	hs.Resolve(nil, errors.New("too late"))

	stream, err := hs.Await(context.Background())
	if err != nil || stream != first {
		t.Fatalf("Await = (%v, %v), want first stream", stream, err)
	}
}

func TestWaitingKeepsBoundedBacklogAndSeesHangUp(t *testing.T) {
	recv := make(chan conn.Message, 8)
	w := newWaiting(nil, room.Player{Identity: identity("A"), Recv: recv}, 2, testutil.NopLogger())

	for _, text := range []string{"one", "two", "three"} {
		recv <- conn.Text(text)
	}
	recv <- conn.Stop

	select {
	case <-w.gone:
	case <-time.After(waitFor):
		t.Fatal("hang-up not seen")
	}
	require.True(t, w.hungUp())

	seated := w.seat()
	require.Len(t, seated.Backlog, 2)
	assert.Equal(t, "one", string(seated.Backlog[0].Payload()))
	assert.Equal(t, "two", string(seated.Backlog[1].Payload()))
}

func TestUnholdHandsOverTheInboundChannel(t *testing.T) {
	recv := make(chan conn.Message, 8)
	w := newWaiting(nil, room.Player{Identity: identity("A"), Recv: recv}, 4, testutil.NopLogger())
	w.unhold()

	recv <- conn.Text("after")
	assert.Equal(t, "after", string((<-recv).Payload()))
	assert.False(t, w.hungUp())

	// Holding again resumes reading
	w.hold()
	recv <- conn.Stop
	select {
	case <-w.gone:
	case <-time.After(waitFor):
		t.Fatal("hang-up not seen after hold")
	}
}
