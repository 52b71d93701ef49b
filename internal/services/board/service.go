package board

import (
	"github.com/mcoot/firgame/internal/model"
)

// Status is the board's outcome after a move
type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusBlackWin Status = "black_win"
	StatusWhiteWin Status = "white_win"
	StatusDraw     Status = "draw"
)

// Terminal reports whether the game is over
func (s Status) Terminal() bool {
	return s != StatusOngoing
}

// Winner returns the winning side for a win status
func (s Status) Winner() (model.Side, bool) {
	switch s {
	case StatusBlackWin:
		return model.SideBlack, true
	case StatusWhiteWin:
		return model.SideWhite, true
	default:
		return "", false
	}
}

func winStatus(side model.Side) Status {
	if side == model.SideBlack {
		return StatusBlackWin
	}
	return StatusWhiteWin
}

// directions scanned for five in a row: horizontal, vertical and both diagonals
var directions = [4]model.Coord{
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
	{X: 1, Y: -1},
}

// Service is the five-in-a-row rules engine. It holds no state; every
// operation works on the BoardState passed in.
type Service struct{}

// New creates a new board Service
func New() *Service {
	return &Service{}
}

// NewGame returns an empty board with Black to move
func (s *Service) NewGame() *model.BoardState {
	return model.NewBoardState()
}

// Play places a stone for side at (x, y).
// On error the board is left untouched.
func (s *Service) Play(state *model.BoardState, x, y int, side model.Side) (Status, error) {
	if _, over := s.Winner(state); over || state.IsFull() {
		return StatusOngoing, model.ErrGameOver
	}
	if side != state.ToMove {
		return StatusOngoing, model.ErrNotYourTurn
	}
	if err := s.ValidatePlacement(state, model.Coord{X: x, Y: y}); err != nil {
		return StatusOngoing, err
	}

	state.Cells[y][x] = model.CellFor(side)
	state.Played++
	state.ToMove = side.Other()

	if lineThrough(state, model.Coord{X: x, Y: y}) {
		return winStatus(side), nil
	}
	if state.IsFull() {
		return StatusDraw, nil
	}
	return StatusOngoing, nil
}

// ValidatePlacement checks if a position is on the board and empty
func (s *Service) ValidatePlacement(state *model.BoardState, pos model.Coord) error {
	if !state.InBounds(pos) {
		return model.ErrOutOfBounds
	}
	if state.Get(pos) != model.CellEmpty {
		return model.ErrCellOccupied
	}
	return nil
}

// Winner scans the whole board for five in a row
func (s *Service) Winner(state *model.BoardState) (model.Side, bool) {
	for y := 0; y < model.BoardSize; y++ {
		for x := 0; x < model.BoardSize; x++ {
			pos := model.Coord{X: x, Y: y}
			cell := state.Get(pos)
			if cell == model.CellEmpty {
				continue
			}
			if lineThrough(state, pos) {
				if cell == model.CellBlack {
					return model.SideBlack, true
				}
				return model.SideWhite, true
			}
		}
	}
	return "", false
}

// Status reports the terminal status of the board without mutating it
func (s *Service) Status(state *model.BoardState) Status {
	if side, ok := s.Winner(state); ok {
		return winStatus(side)
	}
	if state.IsFull() {
		return StatusDraw
	}
	return StatusOngoing
}

// lineThrough reports whether the stone at pos is part of WinLength in a row
func lineThrough(state *model.BoardState, pos model.Coord) bool {
	cell := state.Get(pos)
	if cell == model.CellEmpty {
		return false
	}
	for _, d := range directions {
		count := 1
		count += run(state, pos, d.X, d.Y, cell)
		count += run(state, pos, -d.X, -d.Y, cell)
		if count >= model.WinLength {
			return true
		}
	}
	return false
}

func run(state *model.BoardState, from model.Coord, dx, dy int, cell model.Cell) int {
	n := 0
	p := model.Coord{X: from.X + dx, Y: from.Y + dy}
	for state.InBounds(p) && state.Get(p) == cell {
		n++
		p = model.Coord{X: p.X + dx, Y: p.Y + dy}
	}
	return n
}

// Interface for dependency injection
type ServiceInterface interface {
	NewGame() *model.BoardState
	Play(state *model.BoardState, x, y int, side model.Side) (Status, error)
	ValidatePlacement(state *model.BoardState, pos model.Coord) error
	Winner(state *model.BoardState) (model.Side, bool)
	Status(state *model.BoardState) Status
}

var _ ServiceInterface = (*Service)(nil)
