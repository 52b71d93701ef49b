package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrintUsersTable(t *testing.T) {
	var buf bytes.Buffer
	out := newOutputTo("text", &buf, &buf)

	out.Print([]User{
		{ID: "Alice", Rating: 100, Code: "c1", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "Jonathan", Rating: 200, Code: "c2", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	})

	text := buf.String()
	assert.Contains(t, text, "Rating")
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "Jonathan")
	assert.Contains(t, text, "2024-03-01T00:00:00Z")
}

func TestPrintEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	out := newOutputTo("text", &buf, &buf)

	out.Print([]User{})
	out.Print([]Game{})

	assert.Equal(t, "No users\nNo games\n", buf.String())
}

func TestPrintGameDrawsBoard(t *testing.T) {
	var buf bytes.Buffer
	out := newOutputTo("text", &buf, &buf)
	black := "black"

	out.Print(Game{
		ID:     "g1",
		Black:  Participant{DisplayName: "Jonathan", Rating: 200},
		White:  Participant{DisplayName: "guest-x", Guest: true, Rating: 600},
		Moves:  []Notation{{IsBlack: true, X: 0, Y: 0}, {IsBlack: false, X: 1, Y: 0}},
		Result: "win(black)",
		Winner: &black,
	})

	text := buf.String()
	assert.Contains(t, text, "White: guest-x (guest) [600]")
	assert.Contains(t, text, "Winner: black")
	assert.Contains(t, text, " 0  B  W  . ")
}

func TestBoardFromMovesIgnoresOffBoard(t *testing.T) {
	cells := boardFromMoves([]Notation{{IsBlack: true, X: 9, Y: 0}, {IsBlack: false, X: 7, Y: 7}})

	assert.Equal(t, "W", cells[7][7])
	for _, row := range cells[:7] {
		for _, c := range row {
			assert.Empty(t, c)
		}
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	out := newOutputTo("json", &buf, &buf)

	out.Print(HealthResult{Status: "ok"})

	assert.JSONEq(t, `{"status":"ok"}`, buf.String())
}
