package model

import (
	"fmt"
	"time"
)

// GameID uniquely identifies a finished game record
type GameID string

// TimeControl is the clock setting a session was created with
type TimeControl struct {
	Seconds   int
	Increment int
}

// DefaultTimeControl returns the time control used for queue pairings
func DefaultTimeControl() TimeControl {
	return TimeControl{
		Seconds:   100,
		Increment: 0,
	}
}

// Notation is a single accepted move
type Notation struct {
	Side Side
	X    int
	Y    int
}

// ResultKind is how a game finished
type ResultKind string

const (
	ResultWin    ResultKind = "win"
	ResultResign ResultKind = "resign"
	ResultDraw   ResultKind = "draw"
	ResultAbort  ResultKind = "abort"
)

// GameResult is the final outcome of a game.
// Side is the winner for ResultWin and the resigning side for ResultResign.
type GameResult struct {
	Kind ResultKind
	Side Side
}

// Win returns a win result for side
func Win(side Side) GameResult { return GameResult{Kind: ResultWin, Side: side} }

// Resign returns a resignation by side
func Resign(side Side) GameResult { return GameResult{Kind: ResultResign, Side: side} }

// Draw returns a drawn result
func Draw() GameResult { return GameResult{Kind: ResultDraw} }

// Abort returns an aborted result
func Abort() GameResult { return GameResult{Kind: ResultAbort} }

// Winner returns the winning side, if the result has one
func (r GameResult) Winner() (Side, bool) {
	switch r.Kind {
	case ResultWin:
		return r.Side, true
	case ResultResign:
		return r.Side.Other(), true
	default:
		return "", false
	}
}

func (r GameResult) String() string {
	switch r.Kind {
	case ResultWin, ResultResign:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Side)
	case "":
		return "ongoing"
	default:
		return string(r.Kind)
	}
}

// GameRecord is the history of one finished session
type GameRecord struct {
	ID          GameID
	Black       Identity
	White       Identity
	TimeControl TimeControl
	Moves       []Notation
	Result      GameResult
	StartedAt   time.Time
	EndedAt     time.Time
}

// Player returns the identity playing side
func (g *GameRecord) Player(side Side) Identity {
	if side == SideBlack {
		return g.Black
	}
	return g.White
}
