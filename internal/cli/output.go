package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/mcoot/firgame/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return newOutputTo(format, os.Stdout, os.Stderr)
}

func newOutputTo(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	// Play events stream one per line
	if _, ok := data.(PlayEvent); !ok {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case []User:
		o.printUsers(v)
	case Game:
		o.printGame(v)
	case []Game:
		o.printGames(v)
	case StateResult:
		o.printState(v)
	case HealthResult:
		o.printHealthResult(v)
	case PlayEvent:
		o.printPlayEvent(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant response type
type Participant struct {
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	Guest       bool   `json:"guest,omitempty"`
}

// Notation response type
type Notation struct {
	IsBlack bool `json:"is_black"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
}

// Game response type
type Game struct {
	ID        string      `json:"id,omitempty"`
	Black     Participant `json:"black"`
	White     Participant `json:"white"`
	Seconds   int         `json:"seconds,omitempty"`
	Increment int         `json:"increment,omitempty"`
	Moves     []Notation  `json:"moves"`
	Result    string      `json:"result"`
	Winner    *string     `json:"winner,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at"`
}

// StateResult response type
type StateResult struct {
	Status         string `json:"status"`
	WaitingPlayers int    `json:"waiting_players"`
	SessionsPaired int    `json:"sessions_paired"`
	ActiveRooms    int    `json:"active_rooms"`
	RoomsStarted   int    `json:"rooms_started"`
	Users          int    `json:"users"`
	Games          int    `json:"games"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(o.w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func (o *Output) printUser(u User) {
	_, _ = fmt.Fprintf(o.w, "User: %s\n", u.ID)
	_, _ = fmt.Fprintf(o.w, "Rating: %d\n", u.Rating)
	_, _ = fmt.Fprintf(o.w, "Code: %s\n", u.Code)
	_, _ = fmt.Fprintf(o.w, "Created: %s\n", u.CreatedAt.Format(time.RFC3339))
}

func (o *Output) printUsers(users []User) {
	if len(users) == 0 {
		_, _ = fmt.Fprintln(o.w, "No users")
		return
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, strconv.Itoa(u.Rating), u.Code, u.CreatedAt.Format(time.RFC3339)})
	}
	o.table([]string{"ID", "Rating", "Code", "Created"}, rows)
}

func participantName(p Participant) string {
	if p.Guest {
		return p.DisplayName + " (guest)"
	}
	return p.DisplayName
}

func (o *Output) printGame(g Game) {
	_, _ = fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	_, _ = fmt.Fprintf(o.w, "Black: %s [%d]\n", participantName(g.Black), g.Black.Rating)
	_, _ = fmt.Fprintf(o.w, "White: %s [%d]\n", participantName(g.White), g.White.Rating)
	_, _ = fmt.Fprintf(o.w, "Time control: %d+%d\n", g.Seconds, g.Increment)
	_, _ = fmt.Fprintf(o.w, "Result: %s\n", g.Result)
	if g.Winner != nil {
		_, _ = fmt.Fprintf(o.w, "Winner: %s\n", *g.Winner)
	}
	_, _ = fmt.Fprintf(o.w, "Moves: %d\n\n", len(g.Moves))
	o.printBoard(boardFromMoves(g.Moves))
}

func (o *Output) printGames(games []Game) {
	if len(games) == 0 {
		_, _ = fmt.Fprintln(o.w, "No games")
		return
	}
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		winner := "-"
		if g.Winner != nil {
			winner = *g.Winner
		}
		rows = append(rows, []string{
			g.ID,
			participantName(g.Black),
			participantName(g.White),
			g.Result,
			winner,
			strconv.Itoa(len(g.Moves)),
		})
	}
	o.table([]string{"ID", "Black", "White", "Result", "Winner", "Moves"}, rows)
}

// boardFromMoves lays the recorded moves onto an empty board
func boardFromMoves(moves []Notation) [][]string {
	cells := make([][]string, model.BoardSize)
	for y := range cells {
		cells[y] = make([]string, model.BoardSize)
	}
	for _, m := range moves {
		if m.X < 0 || m.X >= model.BoardSize || m.Y < 0 || m.Y >= model.BoardSize {
			continue
		}
		stone := "W"
		if m.IsBlack {
			stone = "B"
		}
		cells[m.Y][m.X] = stone
	}
	return cells
}

func (o *Output) printBoard(cells [][]string) {
	size := len(cells)
	if size == 0 {
		return
	}

	// Column headers
	_, _ = fmt.Fprint(o.w, "   ")
	for x := 0; x < size; x++ {
		_, _ = fmt.Fprintf(o.w, " %d ", x)
	}
	_, _ = fmt.Fprintln(o.w)

	for y := 0; y < size; y++ {
		_, _ = fmt.Fprintf(o.w, " %d ", y)
		for x := 0; x < size; x++ {
			if cells[y][x] == "" {
				_, _ = fmt.Fprint(o.w, " . ")
			} else {
				_, _ = fmt.Fprintf(o.w, " %s ", cells[y][x])
			}
		}
		_, _ = fmt.Fprintln(o.w)
	}
}

func (o *Output) printState(s StateResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", s.Status)
	_, _ = fmt.Fprintf(o.w, "Waiting players: %d\n", s.WaitingPlayers)
	_, _ = fmt.Fprintf(o.w, "Sessions paired: %d\n", s.SessionsPaired)
	_, _ = fmt.Fprintf(o.w, "Active rooms: %d\n", s.ActiveRooms)
	_, _ = fmt.Fprintf(o.w, "Rooms started: %d\n", s.RoomsStarted)
	_, _ = fmt.Fprintf(o.w, "Users: %d\n", s.Users)
	_, _ = fmt.Fprintf(o.w, "Games: %d\n", s.Games)
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
