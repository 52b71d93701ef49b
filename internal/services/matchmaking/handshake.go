package matchmaking

import (
	"context"
	"sync"

	"github.com/mcoot/firgame/internal/conn"
)

// Handshake is a connection whose upgrade may not have finished yet
type Handshake interface {
	// Await blocks until the upgrade succeeds or fails
	Await(ctx context.Context) (conn.Stream, error)
}

// PendingHandshake is a Handshake resolved by whoever performs the upgrade
type PendingHandshake struct {
	once   sync.Once
	done   chan struct{}
	stream conn.Stream
	err    error
}

// NewHandshake creates an unresolved handshake
func NewHandshake() *PendingHandshake {
	return &PendingHandshake{done: make(chan struct{})}
}

// Resolve completes the handshake. Only the first call has any effect.
func (h *PendingHandshake) Resolve(stream conn.Stream, err error) {
	h.once.Do(func() {
		h.stream = stream
		h.err = err
		close(h.done)
	})
}

// Await implements Handshake
func (h *PendingHandshake) Await(ctx context.Context) (conn.Stream, error) {
	select {
	case <-h.done:
		return h.stream, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ Handshake = (*PendingHandshake)(nil)
