package conn

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Stream is the duplex connection a Connection consumes.
// *websocket.Conn satisfies it.
type Stream interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

var _ Stream = (*websocket.Conn)(nil)

// Config holds connection actor settings
type Config struct {
	// BufferSize is the capacity of both message channels
	BufferSize int
	// WriteTimeout bounds each frame write; zero disables it
	WriteTimeout time.Duration
	// CloseGrace bounds the close frame written on Stop
	CloseGrace time.Duration
}

// DefaultConfig returns sensible defaults for connection actors
func DefaultConfig() Config {
	return Config{
		BufferSize:   16,
		WriteTimeout: 0,
		CloseGrace:   time.Second,
	}
}

// Connection owns one Stream and splits it into a reader loop and a writer
// loop. The rest of the system only sees the two channels returned by Start.
type Connection struct {
	stream Stream
	cfg    Config
	logger *slog.Logger

	out chan Message // peer -> caller
	in  chan Message // caller -> peer

	readerDone chan struct{}
	writerDone chan struct{}
	done       chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
}

// New wraps a stream that has finished its handshake
func New(stream Stream, cfg Config, logger *slog.Logger) *Connection {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = DefaultConfig().CloseGrace
	}
	return &Connection{
		stream:     stream,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "conn"), slog.String("remote", remoteAddr(stream))),
		out:        make(chan Message, cfg.BufferSize),
		in:         make(chan Message, cfg.BufferSize),
		readerDone: make(chan struct{}),
		writerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the reader and writer loops. It returns the endpoint that
// delivers peer messages and the endpoint that accepts messages for the peer.
// Calling Start again returns the same endpoints.
func (c *Connection) Start() (<-chan Message, chan<- Message) {
	c.startOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.readLoop()
		}()
		go func() {
			defer wg.Done()
			c.writeLoop()
		}()
		go func() {
			wg.Wait()
			close(c.done)
			c.logger.Debug("connection destroyed")
		}()
	})
	return c.out, c.in
}

// Stop asks the writer loop to close the stream. It blocks while the
// writer's buffer is full.
func (c *Connection) Stop() {
	select {
	case c.in <- Stop:
	case <-c.writerDone:
	}
}

// Done is closed once both loops have exited
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// ReaderDone is closed once the peer side has gone away
func (c *Connection) ReaderDone() <-chan struct{} {
	return c.readerDone
}

// RemoteAddr returns the peer address for logging
func (c *Connection) RemoteAddr() string {
	return remoteAddr(c.stream)
}

func (c *Connection) readLoop() {
	defer close(c.readerDone)

	for {
		msgType, payload, err := c.stream.ReadMessage()
		if err != nil {
			c.logReadError(err)
			break
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		select {
		case c.out <- Data(payload):
		case <-c.writerDone:
			// Local side hung up; nobody is listening any more
		}
	}

	select {
	case c.out <- Stop:
	case <-c.writerDone:
	}
}

func (c *Connection) writeLoop() {
	defer close(c.writerDone)

	failed := false
	for msg := range c.in {
		if msg.IsStop() {
			c.closeStream()
			return
		}
		if failed {
			// Keep draining so senders never block on a dead peer
			continue
		}
		if c.cfg.WriteTimeout > 0 {
			_ = c.stream.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		}
		if err := c.stream.WriteMessage(websocket.TextMessage, msg.Payload()); err != nil {
			failed = true
			c.logger.Warn("write failed", slog.String("error", err.Error()))
		}
	}
}

func (c *Connection) closeStream() {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.cfg.CloseGrace)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.stream.WriteControl(websocket.CloseMessage, msg, deadline)
		if err := c.stream.Close(); err != nil {
			c.logger.Debug("close failed", slog.String("error", err.Error()))
		}
	})
}

func (c *Connection) logReadError(err error) {
	select {
	case <-c.writerDone:
		// We closed the stream ourselves
		return
	default:
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.Warn("peer closed unexpectedly", slog.Int("code", closeErr.Code))
			return
		}
		c.logger.Info("peer closed", slog.Int("code", closeErr.Code))
		return
	}
	c.logger.Warn("read failed", slog.String("error", err.Error()))
}

func remoteAddr(s Stream) string {
	if addr := s.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
