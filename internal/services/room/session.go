package room

import (
	"github.com/mcoot/firgame/internal/conn"
	"github.com/mcoot/firgame/internal/model"
)

// Player is one side of a session: who they are and the two endpoints of
// their connection actor
type Player struct {
	Identity model.Identity
	Recv     <-chan conn.Message
	Send     chan<- conn.Message
	// Backlog holds frames read from Recv before the session was formed.
	// The room handles them ahead of Recv.
	Backlog []conn.Message
}

// Session is a matched pair handed from the queue to the dispatcher
type Session struct {
	Black       Player
	White       Player
	TimeControl model.TimeControl
}

// Player returns the player on side
func (s Session) Player(side model.Side) Player {
	if side == model.SideBlack {
		return s.Black
	}
	return s.White
}

// State is the lifecycle phase of a room
type State string

const (
	StateStarting   State = "starting"
	StateActive     State = "active"
	StateEnding     State = "ending"
	StateTerminated State = "terminated"
)

// Observer is notified of room lifecycle changes
type Observer interface {
	RoomStateChanged(id model.GameID, state State)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(id model.GameID, state State)

func (f ObserverFunc) RoomStateChanged(id model.GameID, state State) {
	f(id, state)
}

// NopObserver ignores every notification
type NopObserver struct{}

func (NopObserver) RoomStateChanged(model.GameID, State) {}
