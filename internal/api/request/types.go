package request

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the validate tags on a request body
func Validate(req any) error {
	return validate.Struct(req)
}

// RegisterUserRequest is the request body for registering a user
type RegisterUserRequest struct {
	ID       string `json:"id" validate:"required,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=4,max=72"`
	Rating   int    `json:"rating,omitempty" validate:"min=0,max=5000"`
}

// Notation is one move of an imported game
type Notation struct {
	IsBlack bool `json:"is_black"`
	X       int  `json:"x" validate:"min=0,max=7"`
	Y       int  `json:"y" validate:"min=0,max=7"`
}

// Participant is a player of an imported game
type Participant struct {
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name" validate:"required"`
	Rating      int    `json:"rating"`
}

// ImportGameRequest is the request body for recording a finished game
type ImportGameRequest struct {
	Black     Participant `json:"black"`
	White     Participant `json:"white"`
	Seconds   int         `json:"seconds,omitempty" validate:"min=0"`
	Increment int         `json:"increment,omitempty" validate:"min=0"`
	Moves     []Notation  `json:"moves" validate:"dive"`
	Result    string      `json:"result" validate:"required,oneof=win resign draw abort"`
	Winner    string      `json:"winner,omitempty" validate:"omitempty,oneof=black white"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at"`
}
