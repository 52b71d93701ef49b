package model

// CommandKind identifies what a player asked the room to do
type CommandKind string

const (
	CommandPlay       CommandKind = "Play"
	CommandResign     CommandKind = "Resign"
	CommandOfferDraw  CommandKind = "OfferDraw"
	CommandAcceptDraw CommandKind = "AcceptDraw"
	CommandMessage    CommandKind = "Message"
)

// Command is a player instruction tagged with the side that sent it
type Command struct {
	Side  Side
	Kind  CommandKind
	Coord Coord  // Play only
	Text  string // Message only
}

// ResponseKind identifies a notification sent to a player
type ResponseKind string

const (
	ResponseStart              ResponseKind = "Start"
	ResponseOpponentPlay       ResponseKind = "OpponentPlay"
	ResponseOpponentResign     ResponseKind = "OpponentResign"
	ResponseOpponentOfferDraw  ResponseKind = "OpponentOfferDraw"
	ResponseOpponentAcceptDraw ResponseKind = "OpponentAcceptDraw"
	ResponseGameEnd            ResponseKind = "GameEnd"
	ResponseMessage            ResponseKind = "Message"
)

// Response is a notification from the room to one player.
// Side carries the assigned side for Start, the mover for OpponentPlay
// and the resigning side for OpponentResign.
type Response struct {
	Kind  ResponseKind
	Side  Side
	Coord Coord
	Text  string
}

// StartResponse announces the side a player was assigned
func StartResponse(side Side) Response {
	return Response{Kind: ResponseStart, Side: side}
}

// OpponentPlayResponse relays a move made by side
func OpponentPlayResponse(side Side, c Coord) Response {
	return Response{Kind: ResponseOpponentPlay, Side: side, Coord: c}
}

// GameEndResponse announces the final result
func GameEndResponse(result GameResult) Response {
	return Response{Kind: ResponseGameEnd, Side: result.Side, Text: result.String()}
}
