package model

import "strings"

// BoardSize is the width and height of the playing grid
const BoardSize = 8

// WinLength is the number of consecutive stones needed to win
const WinLength = 5

// Side identifies which colour a player is playing
type Side string

const (
	SideBlack Side = "black" // Moves first
	SideWhite Side = "white"
)

// Other returns the opposing side
func (s Side) Other() Side {
	if s == SideBlack {
		return SideWhite
	}
	return SideBlack
}

// IsBlack reports whether the side is Black
func (s Side) IsBlack() bool {
	return s == SideBlack
}

// SideFromBlack converts a wire "is_black" flag to a Side
func SideFromBlack(isBlack bool) Side {
	if isBlack {
		return SideBlack
	}
	return SideWhite
}

// Cell is the state of a single board square
type Cell uint8

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

// CellFor returns the cell value a side places
func CellFor(s Side) Cell {
	if s == SideBlack {
		return CellBlack
	}
	return CellWhite
}

// Coord identifies a square on the board
type Coord struct {
	X int // 0-indexed column
	Y int // 0-indexed row
}

// BoardState is the mutable grid plus whose turn it is
type BoardState struct {
	Cells  [BoardSize][BoardSize]Cell // Cells[y][x]
	ToMove Side
	Played int
}

// NewBoardState returns an empty board with Black to move
func NewBoardState() *BoardState {
	return &BoardState{ToMove: SideBlack}
}

// InBounds reports whether the coordinate lies on the board
func (b *BoardState) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < BoardSize && c.Y >= 0 && c.Y < BoardSize
}

// Get returns the cell at c, or CellEmpty when out of bounds
func (b *BoardState) Get(c Coord) Cell {
	if !b.InBounds(c) {
		return CellEmpty
	}
	return b.Cells[c.Y][c.X]
}

// IsFull returns true when every square is occupied
func (b *BoardState) IsFull() bool {
	return b.Played >= BoardSize*BoardSize
}

// Occupied counts the non-empty squares
func (b *BoardState) Occupied() int {
	count := 0
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if b.Cells[y][x] != CellEmpty {
				count++
			}
		}
	}
	return count
}

// Snapshot returns an independent copy of the board
func (b *BoardState) Snapshot() BoardState {
	return *b
}

// String renders the board for logs, one row per line
func (b *BoardState) String() string {
	var sb strings.Builder
	for y := 0; y < BoardSize; y++ {
		sb.WriteByte('\n')
		for x := 0; x < BoardSize; x++ {
			switch b.Cells[y][x] {
			case CellBlack:
				sb.WriteByte('X')
			case CellWhite:
				sb.WriteByte('O')
			default:
				sb.WriteByte('*')
			}
		}
	}
	return sb.String()
}
