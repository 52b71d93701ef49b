package response

import (
	"time"

	"github.com/samber/lo"

	"github.com/mcoot/firgame/internal/model"
)

// User represents a user in API responses. The password hash is never exposed.
type User struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u model.User) User {
	return User{
		ID:        string(u.ID),
		Rating:    u.Rating,
		Code:      u.Code,
		CreatedAt: u.CreatedAt,
	}
}

// UsersFromModel converts a slice of users
func UsersFromModel(users []model.User) []User {
	return lo.Map(users, func(u model.User, _ int) User {
		return UserFromModel(u)
	})
}

// Participant is one player of a recorded game
type Participant struct {
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	Guest       bool   `json:"guest"`
}

// ParticipantFromModel converts a model.Identity
func ParticipantFromModel(id model.Identity) Participant {
	return Participant{
		UserID:      string(id.UserID),
		DisplayName: id.DisplayName,
		Rating:      id.Rating,
		Guest:       id.Guest,
	}
}

// Notation is one move in a recorded game
type Notation struct {
	IsBlack bool `json:"is_black"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
}

// Game represents a finished game record
type Game struct {
	ID        string      `json:"id"`
	Black     Participant `json:"black"`
	White     Participant `json:"white"`
	Seconds   int         `json:"seconds"`
	Increment int         `json:"increment"`
	Moves     []Notation  `json:"moves"`
	Result    string      `json:"result"`
	Winner    *string     `json:"winner"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at"`
}

// GameFromModel converts a model.GameRecord to a response Game
func GameFromModel(g model.GameRecord) Game {
	var winner *string
	if side, ok := g.Result.Winner(); ok {
		winner = lo.ToPtr(string(side))
	}
	return Game{
		ID:        string(g.ID),
		Black:     ParticipantFromModel(g.Black),
		White:     ParticipantFromModel(g.White),
		Seconds:   g.TimeControl.Seconds,
		Increment: g.TimeControl.Increment,
		Moves: lo.Map(g.Moves, func(n model.Notation, _ int) Notation {
			return Notation{IsBlack: n.Side.IsBlack(), X: n.X, Y: n.Y}
		}),
		Result:    g.Result.String(),
		Winner:    winner,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
}

// GamesFromModel converts a slice of game records
func GamesFromModel(games []model.GameRecord) []Game {
	return lo.Map(games, func(g model.GameRecord, _ int) Game {
		return GameFromModel(g)
	})
}

// State reports what the session core is doing
type State struct {
	Status         string `json:"status"`
	WaitingPlayers int    `json:"waiting_players"`
	SessionsPaired int    `json:"sessions_paired"`
	ActiveRooms    int    `json:"active_rooms"`
	RoomsStarted   int    `json:"rooms_started"`
	Users          int    `json:"users"`
	Games          int    `json:"games"`
}

// Health is the health check body
type Health struct {
	Status string `json:"status"`
}
